package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/autoregister/internal/classfile"
	"github.com/vk/autoregister/internal/testutil"
)

type headerRecorder struct {
	seen []string
}

func (h *headerRecorder) VisitHeader(_ context.Context, hdr classfile.Header) {
	h.seen = append(h.seen, hdr.Name)
}

// nopInserter puts a nop in front of every return of the wanted method.
type nopInserter struct {
	class, method string
	err           error
	calls         int
}

func (n *nopInserter) WantsClass(className string) bool { return className == n.class }

func (n *nopInserter) Wants(className, methodName string) bool {
	return className == n.class && methodName == n.method
}

func (n *nopInserter) Rewrite(_ context.Context, edit MethodEdit) (bool, error) {
	n.calls++
	if n.err != nil {
		return false, n.err
	}
	count, err := edit.Code.InsertBeforeReturns([]byte{0x00}, 0)
	return count > 0, err
}

func TestTransform_UntouchedUnitIsByteIdentical(t *testing.T) {
	data := testutil.Plugin(t, "com/app/PluginA", "com/app/Plugin")
	headers := &headerRecorder{}
	stage := &nopInserter{class: "com/app/Registry", method: "init"}
	p := &Pipeline{HeaderStages: []HeaderStage{headers}, MethodStages: []MethodStage{stage}}

	out, err := p.Transform(context.Background(), data)
	require.NoError(t, err)

	assert.False(t, out.Modified)
	assert.Equal(t, data, out.Data)
	assert.Equal(t, "com/app/PluginA", out.Header.Name)
	assert.Equal(t, []string{"com/app/PluginA"}, headers.seen)
	assert.Zero(t, stage.calls)
}

func TestTransform_RewritesWantedMethod(t *testing.T) {
	data := testutil.NewClass(t, classfile.Header{Name: "com/app/Registry", Access: classfile.AccPublic}).
		Method("other", true, 1).
		Method("init", true, 2).
		Bytes()
	stage := &nopInserter{class: "com/app/Registry", method: "init"}
	p := &Pipeline{MethodStages: []MethodStage{stage}}

	out, err := p.Transform(context.Background(), data)
	require.NoError(t, err)

	assert.True(t, out.Modified)
	assert.Equal(t, []string{"init()V"}, out.Methods)
	assert.Equal(t, 1, stage.calls)
	assert.Equal(t, []string{"return"}, testutil.Listing(t, out.Data, "other"))
	assert.Equal(t, []string{"iconst_0", "ifeq", "nop", "return", "nop", "return"},
		testutil.Listing(t, out.Data, "init"))
}

func TestTransform_MalformedUnitPassesThrough(t *testing.T) {
	data := []byte("not a class file")
	p := &Pipeline{HeaderStages: []HeaderStage{&headerRecorder{}}}

	out, err := p.Transform(context.Background(), data)
	require.ErrorIs(t, err, ErrMalformedUnit)
	require.ErrorIs(t, err, classfile.ErrBadMagic)
	assert.Equal(t, data, out.Data)
	assert.False(t, out.Modified)
}

func TestTransform_RewriteErrorReturnsOriginal(t *testing.T) {
	boom := errors.New("boom")
	data := testutil.Target(t, "com/app/Registry", "init", true, 1)
	p := &Pipeline{MethodStages: []MethodStage{&nopInserter{class: "com/app/Registry", method: "init", err: boom}}}

	out, err := p.Transform(context.Background(), data)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, data, out.Data)
	assert.False(t, out.Modified)
}
