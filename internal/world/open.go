package world

import (
	"context"
	"fmt"

	"github.com/Overload1252/wowjudo-lootboxes/internal/loot"
)

// Opener resolves and grants a tier's loot.
type Opener interface {
	Tiers() int
	Open(ctx context.Context, tier int, dc loot.DropContext, rewards loot.Rewards) (loot.OpenResult, error)
}

// OpenRequest identifies the container a player opens.
type OpenRequest struct {
	WorldID int    `json:"world"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Z       int    `json:"z"`
	Player  string `json:"player"`
}

// OpenContainer consumes the container at the requested position and grants
// its loot. The world's random stream drives the selection. A container whose
// tier the opener does not know is left in place.
func (r *Registry) OpenContainer(ctx context.Context, opener Opener, rewards loot.Rewards, req OpenRequest) (loot.OpenResult, error) {
	w, ok := r.World(req.WorldID)
	if !ok {
		return loot.OpenResult{}, fmt.Errorf("%w: %d", ErrUnknownWorld, req.WorldID)
	}
	pos := BlockPos{X: req.X, Y: req.Y, Z: req.Z}
	if c, ok := w.ContainerAt(pos); ok && (c.Tier < 0 || c.Tier >= opener.Tiers()) {
		return loot.OpenResult{}, fmt.Errorf("%w: %d", loot.ErrUnknownTier, c.Tier)
	}
	container, err := w.TakeContainer(pos)
	if err != nil {
		return loot.OpenResult{}, err
	}
	dc := loot.DropContext{
		Player:   req.Player,
		Location: loot.Location{WorldID: req.WorldID, X: req.X, Y: req.Y, Z: req.Z},
		Random:   w.Random(),
	}
	return opener.Open(ctx, container.Tier, dc, rewards)
}
