package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestSynthesizeName(t *testing.T) {
	tests := []struct {
		verb, path, want string
	}{
		{"post", "/auth/signin", "post_auth_signin"},
		{"GET", "/users/{id}", "get_users_id"},
		{"delete", "/users/{id}/roles/{role}", "delete_users_id_roles_role"},
		{"get", "/", "get_"},
		{"patch", "/v1.2/items-list", "patch_v1_2_items_list"},
		{"put", "/{id}", "put_id"},
		{"get", "/otp/send", "get_otp_send"},
	}
	for _, tt := range tests {
		t.Run(tt.verb+" "+tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, SynthesizeName(tt.verb, tt.path))
		})
	}
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "_1abc", SanitizeName("1abc"))
	assert.Equal(t, "a_b_c", SanitizeName("a-b.c"))
	assert.Equal(t, "_", SanitizeName(""))
	assert.Equal(t, "caf_", SanitizeName("café"))
}

func TestIsValidName(t *testing.T) {
	assert.True(t, IsValidName("post_auth_signin"))
	assert.True(t, IsValidName("_1"))
	assert.False(t, IsValidName("1abc"))
	assert.False(t, IsValidName("a-b"))
	assert.False(t, IsValidName(""))
}

var (
	verbGen    = rapid.SampledFrom([]string{"get", "post", "put", "patch", "delete", "GET", "Post"})
	segmentGen = rapid.StringMatching(`(\{[a-zA-Z_][a-zA-Z0-9_-]{0,6}\}|[a-zA-Z0-9._~é-]{1,8})`)
	pathGen    = rapid.Custom(func(t *rapid.T) string {
		segs := rapid.SliceOfN(segmentGen, 0, 5).Draw(t, "segments")
		p := ""
		for _, s := range segs {
			p += "/" + s
		}
		if p == "" {
			p = "/"
		}
		return p
	})
)

func TestSynthesizeName_AlwaysValid(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		name := SynthesizeName(verbGen.Draw(t, "verb"), pathGen.Draw(t, "path"))
		if !IsValidName(name) {
			t.Fatalf("invalid name %q", name)
		}
	})
}

func TestSynthesizeName_Deterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		verb := verbGen.Draw(t, "verb")
		path := pathGen.Draw(t, "path")
		if a, b := SynthesizeName(verb, path), SynthesizeName(verb, path); a != b {
			t.Fatalf("SynthesizeName(%q, %q) gave %q then %q", verb, path, a, b)
		}
	})
}

func TestBuild_NamesValidAndDistinct(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		desc := &Description{}
		for _, path := range rapid.SliceOfN(pathGen, 1, 12).Draw(t, "paths") {
			item := PathItem{Path: path}
			for _, verb := range rapid.SliceOfN(verbGen, 1, 3).Draw(t, "verbs") {
				item.Operations = append(item.Operations, Operation{Verb: verb})
			}
			desc.Paths = append(desc.Paths, item)
		}

		tools := Build(desc)
		if len(tools) != desc.OperationCount() {
			t.Fatalf("got %d tools for %d operations", len(tools), desc.OperationCount())
		}
		seen := make(map[string]bool, len(tools))
		for _, tool := range tools {
			if !IsValidName(tool.Name) {
				t.Fatalf("invalid name %q", tool.Name)
			}
			if seen[tool.Name] {
				t.Fatalf("duplicate name %q", tool.Name)
			}
			seen[tool.Name] = true
		}
	})
}

func TestBuild_CollisionSuffix(t *testing.T) {
	desc, err := ParseDescription([]byte(`{"paths":{"/a-b":{"get":{}},"/a_b":{"get":{}},"/a.b":{"get":{}}}}`))
	require.NoError(t, err)

	tools := Build(desc)
	require.Len(t, tools, 3)
	assert.Equal(t, "get_a_b", tools[0].Name)
	assert.Equal(t, "get_a_b_2", tools[1].Name)
	assert.Equal(t, "get_a_b_3", tools[2].Name)
	assert.Equal(t, "/a_b", tools[1].Path)
}
