package config

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/autoregister/internal/rule"
)

func TestConvert(t *testing.T) {
	m := &Model{Descriptors: []Descriptor{
		{
			KeyScanInterface:         "com.app.Plugin",
			KeyScanSuperClasses:      "com.app.BasePlugin",
			KeyCodeInsertToClassName: "com.app.Registry",
			KeyRegisterMethodName:    "add",
			KeyInclude:               []any{"com.app.impl", 42},
			KeyExclude:               []string{"Test"},
		},
		// No injection class: dropped.
		{KeyScanInterface: "com.app.Orphan"},
		{
			KeyScanInterface:          "com.app.Listener",
			KeyCodeInsertToClassName:  "com.app.Boot",
			KeyCodeInsertToMethodName: "start",
			KeyRegisterClassName:      "com.app.Registry",
			KeyScanSuperClasses:       7,
		},
	}}

	rules := Convert(context.Background(), m)
	require.Len(t, rules, 2)

	want := rule.Rule{
		InterfaceName:      "com/app/Plugin",
		SuperClassNames:    []string{"com/app/BasePlugin"},
		InitClassName:      "com/app/Registry",
		InitMethodName:     rule.StaticInitializer,
		RegisterClassName:  "com/app/Registry",
		RegisterMethodName: "add",
		Include:            []string{"com/app/impl"},
		Exclude:            []string{"Test"},
	}
	want.ID = rule.ComputeID(want.InterfaceName, want.InitClassName, want.InitMethodName)
	assert.Equal(t, want, rules[0])

	assert.Equal(t, "start", rules[1].InitMethodName)
	assert.Equal(t, "com/app/Registry", rules[1].RegisterClassName)
	assert.Empty(t, rules[1].SuperClassNames)
}

func TestConvert_Nil(t *testing.T) {
	assert.Nil(t, Convert(context.Background(), nil))
	assert.Empty(t, Convert(context.Background(), &Model{}))
}
