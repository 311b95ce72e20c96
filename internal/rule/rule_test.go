package rule

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestNormalize_ConvertsNamesAndFillsDefaults(t *testing.T) {
	r := Rule{
		InterfaceName:      "com.app.Plugin",
		SuperClassNames:    []string{"com.app.BasePlugin"},
		InitClassName:      "com.app.Registry",
		RegisterMethodName: "add",
		Include:            []string{"com.app.impl."},
		Exclude:            []string{"Test"},
	}.Normalize()

	assert.Equal(t, "com/app/Plugin", r.InterfaceName)
	assert.Equal(t, []string{"com/app/BasePlugin"}, r.SuperClassNames)
	assert.Equal(t, "com/app/Registry", r.InitClassName)
	assert.Equal(t, StaticInitializer, r.InitMethodName)
	assert.Equal(t, "com/app/Registry", r.RegisterClassName)
	assert.Equal(t, []string{"com/app/impl/"}, r.Include)
	assert.Equal(t, []string{"Test"}, r.Exclude)
	assert.NotEmpty(t, r.ID)
}

func TestNormalize_KeepsExplicitRegisterClassAndMethod(t *testing.T) {
	r := Rule{
		InterfaceName:      "Plugin",
		InitClassName:      "Registry",
		InitMethodName:     "init",
		RegisterClassName:  "com.app.Sink",
		RegisterMethodName: "add",
	}.Normalize()

	assert.Equal(t, "init", r.InitMethodName)
	assert.Equal(t, "com/app/Sink", r.RegisterClassName)
}

func TestNormalize_DoesNotMutateReceiver(t *testing.T) {
	raw := Rule{InterfaceName: "a.B", InitClassName: "c.D", Include: []string{"x.y"}}
	_ = raw.Normalize()
	assert.Equal(t, "a.B", raw.InterfaceName)
	assert.Equal(t, []string{"x.y"}, raw.Include)
}

func TestID_IsDeterministic(t *testing.T) {
	a := Rule{InterfaceName: "com.app.Plugin", InitClassName: "com.app.Registry"}.Normalize()
	b := Rule{InterfaceName: "com/app/Plugin", InitClassName: "com/app/Registry", InitMethodName: StaticInitializer}.Normalize()
	c := Rule{InterfaceName: "com.app.Plugin", InitClassName: "com.app.Registry", InitMethodName: "init"}.Normalize()

	assert.Equal(t, a.ID, b.ID, "dotted and slashed spellings share an identity")
	assert.NotEqual(t, a.ID, c.ID)
	assert.Equal(t, a.ID, ComputeID("com/app/Plugin", "com/app/Registry", StaticInitializer))
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		rule Rule
		want bool
	}{
		{"complete", Rule{InterfaceName: "I", InitClassName: "C"}, true},
		{"missing interface", Rule{InitClassName: "C", SuperClassNames: []string{"S"}}, false},
		{"missing init class", Rule{InterfaceName: "I"}, false},
		{"empty", Rule{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.rule.Normalize().Validate())
		})
	}
}

func TestMatchesFilters(t *testing.T) {
	r := Rule{
		InterfaceName: "Plugin",
		InitClassName: "Registry",
		Include:       []string{"impl/"},
		Exclude:       []string{"Test"},
	}.Normalize()

	assert.True(t, r.MatchesFilters("com/app/impl/PluginD"))
	assert.False(t, r.MatchesFilters("com/app/other/PluginE"))
	assert.False(t, r.MatchesFilters("com/app/impl/PluginTest"))

	open := Rule{InterfaceName: "Plugin", InitClassName: "Registry"}.Normalize()
	assert.True(t, open.MatchesFilters("anything/At/All"))
}

func TestMatchesFilters_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		part := rapid.StringMatching(`[a-z]{1,3}`)
		include := rapid.SliceOfN(part, 0, 3).Draw(t, "include")
		exclude := rapid.SliceOfN(part, 0, 3).Draw(t, "exclude")
		name := rapid.StringMatching(`[a-z/]{0,12}`).Draw(t, "name")

		r := Rule{InterfaceName: "I", InitClassName: "C", Include: include, Exclude: exclude}.Normalize()

		included := len(include) == 0
		for _, in := range include {
			included = included || strings.Contains(name, in)
		}
		excluded := false
		for _, ex := range exclude {
			excluded = excluded || strings.Contains(name, ex)
		}

		if got, want := r.MatchesFilters(name), included && !excluded; got != want {
			t.Fatalf("MatchesFilters(%q) = %v, want %v (include=%v exclude=%v)", name, got, want, include, exclude)
		}
	})
}

func TestTargetsAndDescriptor(t *testing.T) {
	r := Rule{InterfaceName: "com.app.Plugin", InitClassName: "com.app.Registry", InitMethodName: "init"}.Normalize()

	require.True(t, r.Targets("com/app/Registry", "init"))
	assert.False(t, r.Targets("com/app/Registry", StaticInitializer))
	assert.False(t, r.Targets("com/app/Other", "init"))
	assert.Equal(t, "(Lcom/app/Plugin;)V", r.RegisterDescriptor())
}

func TestHasSuperClass(t *testing.T) {
	r := Rule{InterfaceName: "I", InitClassName: "C", SuperClassNames: []string{"a.Base", "b.Base"}}.Normalize()
	assert.True(t, r.HasSuperClass("b/Base"))
	assert.False(t, r.HasSuperClass("java/lang/Object"))
}
