package project

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

type buildState struct {
	Digest string `yaml:"digest"`
}

// computeDigest hashes every script's path and content in sorted path
// order. Renaming a file changes the digest even when its content is
// untouched.
func computeDigest(files []*scriptFile) string {
	sorted := append([]*scriptFile(nil), files...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].resPath < sorted[j].resPath })

	h := sha256.New()
	for _, f := range sorted {
		h.Write([]byte(f.resPath))
		h.Write([]byte{0})
		h.Write(f.content)
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// loadDigest returns the digest of the last completed build, or "" when
// no build state exists or it cannot be read.
func loadDigest(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	var st buildState
	if err := yaml.Unmarshal(data, &st); err != nil {
		return ""
	}
	return st.Digest
}

func saveDigest(path, digest string) error {
	data, err := yaml.Marshal(buildState{Digest: digest})
	if err != nil {
		return fmt.Errorf("encoding build state: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing build state: %w", err)
	}
	return nil
}
