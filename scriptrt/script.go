package scriptrt

import "github.com/google/uuid"

// EntityID is the opaque 128-bit identifier referencing a host entity.
// All handle types (statically kinded or dynamic) share this
// representation, which is why they convert freely between each other.
type EntityID uuid.UUID

// ZeroEntityID is the null handle.
var ZeroEntityID EntityID

// NewEntityID returns a fresh random identifier.
func NewEntityID() EntityID { return EntityID(uuid.New()) }

// ParseEntityID parses the canonical textual form.
func ParseEntityID(s string) (EntityID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return ZeroEntityID, err
	}
	return EntityID(u), nil
}

func (id EntityID) String() string { return uuid.UUID(id).String() }

// IsZero reports whether the handle is null.
func (id EntityID) IsZero() bool { return id == ZeroEntityID }

// Lifecycle hook flags. The generator emits the OR of the hooks a
// script defines; the host tests the flag before probing a hook.
const (
	FlagInit        uint8 = 1 << 0
	FlagUpdate      uint8 = 1 << 1
	FlagFixedUpdate uint8 = 1 << 2
	FlagDraw        uint8 = 1 << 3
)

// Host is the capability handle passed into every script invocation
// that may touch the entity graph. It is provided by the host runtime;
// scripts whose functions never use the entity graph are generated
// without acquiring it.
type Host interface {
	// GetChildByName resolves a named child of an entity.
	GetChildByName(parent EntityID, name string) EntityID
	// GetParent resolves the parent of an entity.
	GetParent(child EntityID) EntityID
	// NodeKind returns the entity's type tag.
	NodeKind(id EntityID) string
	// GetField reads a field on a host entity.
	GetField(id EntityID, name string) Value
	// SetField writes a field on a host entity.
	SetField(id EntityID, name string, v Value)
	// CallHost invokes a host built-in module function.
	CallHost(module, fn string, args []Value) Value
	// EmitSignal raises a named signal from an entity.
	EmitSignal(id EntityID, name string, args []Value)
}

// CreateFn constructs a fresh script instance. The aggregation registry
// maps every compiled script identifier to one of these.
type CreateFn func() ScriptObject

// ScriptObject is the contract every generated script satisfies. The
// host owns instance lifetime and routes external requests through the
// hash-keyed dispatch methods; all four underlying tables are
// compile-time-constant data, so concurrent read-only lookups are safe.
type ScriptObject interface {
	// Flags reports which lifecycle hooks the script defines.
	Flags() uint8
	// SetSelf binds the instance to its host entity.
	SetSelf(id EntityID)

	Init(h Host)
	Update(h Host, dt float64)
	FixedUpdate(h Host, dt float64)
	Draw(h Host)

	// Read returns an exposed-for-read-write member by hashed name.
	Read(key uint64) (Value, bool)
	// Write sets an exposed-for-read-write member by hashed name. It
	// returns false, mutating nothing, when extraction fails.
	Write(key uint64, v Value) bool
	// Apply sets an exposed-for-apply member by hashed name, silently
	// leaving the member unmodified when extraction fails.
	Apply(key uint64, v Value)
	// Call invokes a non-lifecycle function by hashed name. Arguments
	// that fail extraction are replaced by their type's default.
	Call(key uint64, args []Value, h Host) bool

	// MemberAttributes and AttributeMembers expose the two
	// reverse-indexed metadata maps.
	MemberAttributes() map[string][]string
	AttributeMembers() map[string][]string
}

// Small fixed-layout host value types. These are the built-in record
// kinds classified as trivially duplicable.

type Vec2 struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

type Color struct {
	R float32 `json:"r"`
	G float32 `json:"g"`
	B float32 `json:"b"`
	A float32 `json:"a"`
}

type Rect struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	W float32 `json:"w"`
	H float32 `json:"h"`
}

type Transform2D struct {
	Position Vec2    `json:"position"`
	Rotation float32 `json:"rotation"`
	Scale    Vec2    `json:"scale"`
}
