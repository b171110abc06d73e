package hierarchy_test

import (
	"context"
	"testing"

	"github.com/evaltrack/backend/hierarchy"
	"github.com/evaltrack/backend/srvcerror"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTree(t *testing.T) {
	ctx := context.Background()
	h := hierarchy.NewHierarchy(hierarchy.NewInMemHierarchyRepo())

	project, err := h.CreateNode(ctx, hierarchy.CreateNodeParams{Kind: hierarchy.KindProject, Name: " Placement 2024 "})
	require.NoError(t, err)
	assert.Equal(t, "Placement 2024", project.Name)

	parent := project
	for _, kind := range []hierarchy.Kind{hierarchy.KindCampus, hierarchy.KindCourse, hierarchy.KindSpecialization, hierarchy.KindBatch} {
		n, err := h.CreateNode(ctx, hierarchy.CreateNodeParams{Kind: kind, ParentID: &parent.ID, Name: string(kind)})
		require.NoError(t, err, kind)
		assert.Equal(t, parent.ID, *n.ParentID)
		parent = n
	}

	batches, err := h.ListNodes(ctx, hierarchy.Filter{Kind: hierarchy.KindBatch})
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, parent.ID, batches[0].ID)
}

func TestCreateNodeRejects(t *testing.T) {
	ctx := context.Background()
	h := hierarchy.NewHierarchy(hierarchy.NewInMemHierarchyRepo())
	project, err := h.CreateNode(ctx, hierarchy.CreateNodeParams{Kind: hierarchy.KindProject, Name: "P"})
	require.NoError(t, err)
	missing := uuid.New()

	tests := []struct {
		name   string
		params hierarchy.CreateNodeParams
		code   string
	}{
		{"blank name", hierarchy.CreateNodeParams{Kind: hierarchy.KindProject, Name: "  "}, srvcerror.ErrCodeInvalidRequest},
		{"unknown kind", hierarchy.CreateNodeParams{Kind: "region", Name: "R"}, srvcerror.ErrCodeInvalidRequest},
		{"project with parent", hierarchy.CreateNodeParams{Kind: hierarchy.KindProject, ParentID: &project.ID, Name: "Q"}, hierarchy.ErrCodeInvalidParent},
		{"campus without parent", hierarchy.CreateNodeParams{Kind: hierarchy.KindCampus, Name: "C"}, hierarchy.ErrCodeInvalidParent},
		{"batch under project", hierarchy.CreateNodeParams{Kind: hierarchy.KindBatch, ParentID: &project.ID, Name: "B"}, hierarchy.ErrCodeInvalidParent},
		{"missing parent", hierarchy.CreateNodeParams{Kind: hierarchy.KindCampus, ParentID: &missing, Name: "C"}, hierarchy.ErrCodeNodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.CreateNode(ctx, tt.params)
			assert.True(t, srvcerror.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestRenameAndDelete(t *testing.T) {
	ctx := context.Background()
	h := hierarchy.NewHierarchy(hierarchy.NewInMemHierarchyRepo())
	project, err := h.CreateNode(ctx, hierarchy.CreateNodeParams{Kind: hierarchy.KindProject, Name: "P"})
	require.NoError(t, err)
	campus, err := h.CreateNode(ctx, hierarchy.CreateNodeParams{Kind: hierarchy.KindCampus, ParentID: &project.ID, Name: "C"})
	require.NoError(t, err)

	code := "NORTH"
	renamed, err := h.RenameNode(ctx, hierarchy.RenameNodeParams{ID: campus.ID, Name: "North", Code: &code})
	require.NoError(t, err)
	assert.Equal(t, "North", renamed.Name)
	assert.Equal(t, "NORTH", renamed.Code)
	assert.Equal(t, hierarchy.KindCampus, renamed.Kind)

	err = h.DeleteNode(ctx, project.ID)
	assert.True(t, srvcerror.HasCode(err, hierarchy.ErrCodeHasChildren))

	require.NoError(t, h.DeleteNode(ctx, campus.ID))
	require.NoError(t, h.DeleteNode(ctx, project.ID))

	err = h.DeleteNode(ctx, project.ID)
	assert.True(t, srvcerror.HasCode(err, hierarchy.ErrCodeNodeNotFound))
}
