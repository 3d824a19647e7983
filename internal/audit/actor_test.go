package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveActor(t *testing.T) {
	fallback := &ActorContext{UserID: "sys", UserName: "system"}

	tests := []struct {
		name     string
		ctx      context.Context
		fallback *ActorContext
		wantID   *string
		wantName *string
	}{
		{
			name:     "request principal wins",
			ctx:      WithPrincipal(context.Background(), Principal{ID: "u1", Name: "jane"}),
			fallback: fallback,
			wantID:   strPtr("u1"),
			wantName: strPtr("jane"),
		},
		{
			name:     "anonymous principal falls back",
			ctx:      WithPrincipal(context.Background(), Principal{Anonymous: true}),
			fallback: fallback,
			wantID:   strPtr("sys"),
			wantName: strPtr("system"),
		},
		{
			name:     "no principal falls back",
			ctx:      context.Background(),
			fallback: fallback,
			wantID:   strPtr("sys"),
			wantName: strPtr("system"),
		},
		{
			name:     "nothing known",
			ctx:      context.Background(),
			fallback: &ActorContext{},
		},
		{
			name: "nil fallback",
			ctx:  context.Background(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, name := ResolveActor(tt.ctx, tt.fallback)
			assert.Equal(t, tt.wantID, id)
			assert.Equal(t, tt.wantName, name)
		})
	}
}

func TestActorContextSet(t *testing.T) {
	var a ActorContext
	a.Set("u9", "new member")
	id, name := ResolveActor(context.Background(), &a)
	require.NotNil(t, id)
	assert.Equal(t, "u9", *id)
	assert.Equal(t, "new member", *name)
}

func strPtr(s string) *string { return &s }
