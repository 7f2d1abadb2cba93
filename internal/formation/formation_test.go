package formation_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxviazov/sideline-rotation/internal/formation"
	"github.com/maxviazov/sideline-rotation/internal/model"
)

func individual(squad int) model.TeamConfig {
	return model.TeamConfig{Format: "5v5", SquadSize: squad, FormationType: model.Formation22, SubstitutionType: model.SubstitutionIndividual}
}

func squad(ids ...string) []model.Player {
	out := make([]model.Player, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.Player{ID: id})
	}
	return out
}

func hasIssue(t *testing.T, err error, field string) bool {
	t.Helper()
	var inv *formation.InvalidFormationError
	require.True(t, errors.As(err, &inv), "expected InvalidFormationError, got %v", err)
	for _, is := range inv.Issues {
		if is.Field == field {
			return true
		}
	}
	return false
}

func TestLayouts(t *testing.T) {
	cfg := individual(7)
	assert.Equal(t, []model.Position{model.PosLeftDefender, model.PosRightDefender, model.PosLeftAttacker, model.PosRightAttacker}, formation.FieldPositions(cfg))
	assert.Equal(t, []model.Position{"substitute_1", "substitute_2"}, formation.SubstitutePositions(cfg))

	cfg.FormationType = model.Formation121
	assert.Equal(t, model.RoleMidfielder, formation.FieldPositions(cfg)[1].Role())

	pairs := model.TeamConfig{Format: "5v5", SquadSize: 7, FormationType: model.Formation22, SubstitutionType: model.SubstitutionPairs}
	assert.Len(t, formation.AllPositions(pairs), 7)
	key, ok := formation.PairKey(model.PosRightPairAttacker)
	assert.True(t, ok)
	assert.Equal(t, formation.PairRight, key)
}

func TestValidate_OK(t *testing.T) {
	cfg := individual(6)
	f := formation.Build(cfg, "p1", []string{"p2", "p3", "p4", "p5"}, []string{"p6"})
	assert.NoError(t, formation.Validate(cfg, f, squad("p1", "p2", "p3", "p4", "p5", "p6")))
}

func TestValidate_Failures(t *testing.T) {
	cfg := individual(6)
	players := squad("p1", "p2", "p3", "p4", "p5", "p6")

	cases := []struct {
		name  string
		f     model.Formation
		ps    []model.Player
		field string
	}{
		{"missing goalie", formation.Build(cfg, "", []string{"p2", "p3", "p4", "p5"}, []string{"p6"}), players, "formation.goalie"},
		{"duplicate", formation.Build(cfg, "p1", []string{"p2", "p2", "p4", "p5"}, []string{"p6"}), players, "formation.rightDefender"},
		{"empty field slot", formation.Build(cfg, "p1", []string{"p2", "", "p4", "p5"}, []string{"p6"}), players, "formation.rightDefender"},
		{"unknown player", formation.Build(cfg, "p1", []string{"p2", "p3", "p4", "p9"}, []string{"p6"}), players, "formation.rightAttacker"},
		{"squad size", formation.Build(cfg, "p1", []string{"p2", "p3", "p4", "p5"}, nil), squad("p1", "p2", "p3", "p4", "p5"), "players"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := formation.Validate(cfg, tc.f, tc.ps)
			require.Error(t, err)
			assert.ErrorIs(t, err, formation.ErrInvalidFormation)
			assert.True(t, hasIssue(t, err, tc.field), "missing issue for %s in %v", tc.field, err)
		})
	}
}

func TestValidate_IssueOrderIsStable(t *testing.T) {
	cfg := individual(7)
	players := squad("p1", "p2", "p3", "p4", "p5", "p6", "p7")
	f := formation.Build(cfg, "p1", []string{"p2", "p3", "p4", "p5"}, nil)
	f.Positions["zulu"] = "p6"
	f.Positions["alpha"] = "p7"

	want := []string{"formation.alpha", "formation.zulu", "formation", "formation"}
	for range 20 {
		var inv *formation.InvalidFormationError
		require.ErrorAs(t, formation.Validate(cfg, f, players), &inv)
		fields := make([]string, 0, len(inv.Issues))
		for _, is := range inv.Issues {
			fields = append(fields, is.Field)
		}
		require.Equal(t, want, fields)
		assert.Contains(t, inv.Issues[2].Message, "p6")
		assert.Contains(t, inv.Issues[3].Message, "p7")
	}
}

func TestValidateConfig_Pairs(t *testing.T) {
	cfg := model.TeamConfig{Format: "5v5", SquadSize: 8, FormationType: model.Formation121, SubstitutionType: model.SubstitutionPairs}
	err := formation.ValidateConfig(cfg)
	require.Error(t, err)
	assert.True(t, hasIssue(t, err, "teamConfig.squadSize"))
	assert.True(t, hasIssue(t, err, "teamConfig.formationType"))
}

func TestValidateConfig_Tags(t *testing.T) {
	err := formation.ValidateConfig(model.TeamConfig{Format: "11v11", SquadSize: 3, FormationType: "4-4-2", SubstitutionType: "rolling"})
	require.Error(t, err)
	assert.True(t, hasIssue(t, err, "teamConfig.format"))
	assert.True(t, hasIssue(t, err, "teamConfig.squadSize"))
	assert.True(t, hasIssue(t, err, "teamConfig.substitutionType"))
}
