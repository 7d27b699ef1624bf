package hostmod

import "github.com/pawlang/paw/types"

func init() {
	f64 := types.Float(64)
	i64 := types.Int(64)
	str := types.String()
	node := types.DynNode()

	Register(&Module{
		Name: "math",
		Funcs: []FuncDef{
			{Name: "sqrt", Args: []types.Type{f64}, Ret: f64, GoTemplate: "math.Sqrt(%s)", GoImports: []string{"math"}},
			{Name: "abs", Args: []types.Type{f64}, Ret: f64, GoTemplate: "math.Abs(%s)", GoImports: []string{"math"}},
			{Name: "sin", Args: []types.Type{f64}, Ret: f64, GoTemplate: "math.Sin(%s)", GoImports: []string{"math"}},
			{Name: "cos", Args: []types.Type{f64}, Ret: f64, GoTemplate: "math.Cos(%s)", GoImports: []string{"math"}},
			{Name: "pow", Args: []types.Type{f64, f64}, Ret: f64, GoTemplate: "math.Pow(%s, %s)", GoImports: []string{"math"}},
			{Name: "floor", Args: []types.Type{f64}, Ret: f64, GoTemplate: "math.Floor(%s)", GoImports: []string{"math"}},
			{Name: "ceil", Args: []types.Type{f64}, Ret: f64, GoTemplate: "math.Ceil(%s)", GoImports: []string{"math"}},
			{Name: "min", Args: []types.Type{f64, f64}, Ret: f64, GoTemplate: "math.Min(%s, %s)", GoImports: []string{"math"}},
			{Name: "max", Args: []types.Type{f64, f64}, Ret: f64, GoTemplate: "math.Max(%s, %s)", GoImports: []string{"math"}},
		},
	})

	Register(&Module{
		Name: "str",
		Funcs: []FuncDef{
			{Name: "len", Args: []types.Type{str}, Ret: i64, GoTemplate: "int64(len(%s))"},
			{Name: "upper", Args: []types.Type{str}, Ret: str, GoTemplate: "strings.ToUpper(%s)", GoImports: []string{"strings"}},
			{Name: "lower", Args: []types.Type{str}, Ret: str, GoTemplate: "strings.ToLower(%s)", GoImports: []string{"strings"}},
			{Name: "trim", Args: []types.Type{str}, Ret: str, GoTemplate: "strings.TrimSpace(%s)", GoImports: []string{"strings"}},
			{Name: "contains", Args: []types.Type{str, str}, Ret: types.Bool(), GoTemplate: "strings.Contains(%s, %s)", GoImports: []string{"strings"}},
			{Name: "split", Args: []types.Type{str, str}, Ret: types.Array(str), GoTemplate: "strings.Split(%s, %s)", GoImports: []string{"strings"}},
			{Name: "join", Args: []types.Type{types.Array(str), str}, Ret: str, GoTemplate: "strings.Join(%s, %s)", GoImports: []string{"strings"}},
		},
	})

	Register(&Module{
		Name: "log",
		Funcs: []FuncDef{
			{Name: "info", Args: []types.Type{str}, Ret: types.Void(), Kind: HostRouted},
			{Name: "warn", Args: []types.Type{str}, Ret: types.Void(), Kind: HostRouted},
			{Name: "error", Args: []types.Type{str}, Ret: types.Void(), Kind: HostRouted},
		},
	})

	Register(&Module{
		Name: "time",
		Funcs: []FuncDef{
			{Name: "now", Ret: f64, Kind: HostRouted},
			{Name: "delta", Ret: f64, Kind: HostRouted},
		},
	})

	Register(&Module{
		Name: "input",
		Funcs: []FuncDef{
			{Name: "is_key_pressed", Args: []types.Type{str}, Ret: types.Bool(), Kind: HostRouted},
			{Name: "axis", Args: []types.Type{str}, Ret: f64, Kind: HostRouted},
		},
	})

	Register(&Module{
		Name: "scene",
		Funcs: []FuncDef{
			// The two sugar accessors tracked by cloned-handle analysis.
			{Name: "get_child_by_name", Args: []types.Type{str}, Ret: node, Kind: ChildLookup},
			{Name: "get_parent", Ret: node, Kind: ParentLookup},
			{Name: "spawn", Args: []types.Type{str}, Ret: node, Kind: HostRouted},
			{Name: "destroy", Args: []types.Type{node}, Ret: types.Void(), Kind: HostRouted},
			{Name: "emit", Args: []types.Type{str, types.Array(types.Any())}, Ret: types.Void(), Kind: HostRouted},
		},
	})
}
