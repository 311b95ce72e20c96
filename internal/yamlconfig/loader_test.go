package yamlconfig

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/autoregister/internal/config"
	"github.com/vk/autoregister/internal/testutil"
)

func TestLoadBytes_NestedAndTopLevel(t *testing.T) {
	src := testutil.Unindent(`
		autoregister:
		  registerInfo:
		    - scanInterface: com.app.Plugin
		      scanSuperClasses: com.app.BasePlugin
		      codeInsertToClassName: com.app.Registry
		      registerMethodName: add
		      include: [impl/]
		---
		registerInfo:
		  - scanInterface: com.app.Listener
		    scanSuperClasses: [com.app.A, com.app.B]
		    codeInsertToClassName: com.app.Registry
	`)

	m, err := NewLoader().LoadBytes(context.Background(), []byte(src))
	require.NoError(t, err)
	require.Len(t, m.Descriptors, 2)

	rules := config.Convert(context.Background(), m)
	require.Len(t, rules, 2)
	assert.Equal(t, "com/app/Plugin", rules[0].InterfaceName)
	assert.Equal(t, []string{"com/app/BasePlugin"}, rules[0].SuperClassNames)
	assert.Equal(t, []string{"impl/"}, rules[0].Include)
	assert.Equal(t, []string{"com/app/A", "com/app/B"}, rules[1].SuperClassNames)
	assert.Equal(t, "<clinit>", rules[1].InitMethodName)
}

func TestLoadBytes_Empty(t *testing.T) {
	m, err := NewLoader().LoadBytes(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, m.Descriptors)
}

func TestLoadBytes_Malformed(t *testing.T) {
	_, err := NewLoader().LoadBytes(context.Background(), []byte("registerInfo: [unterminated"))
	require.Error(t, err)
}

func TestLoad_File(t *testing.T) {
	p := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(p, []byte("registerInfo:\n  - scanInterface: a.B\n    codeInsertToClassName: a.C\n"), 0o644))

	m, err := NewLoader().Load(context.Background(), p)
	require.NoError(t, err)
	require.Len(t, m.Descriptors, 1)
	assert.Equal(t, "a.B", m.Descriptors[0][config.KeyScanInterface])
}
