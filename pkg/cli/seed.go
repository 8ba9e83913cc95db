package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/caseops/workbasket/pkg/cli/config"
	"github.com/caseops/workbasket/pkg/domain/types"
	"github.com/caseops/workbasket/pkg/usecase"
	"github.com/caseops/workbasket/pkg/utils/logging"
)

const seedActor = types.UserID("system")

func cmdSeed() *cli.Command {
	var topologyPath string
	var repoCfg config.Repository

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "topology",
			Usage:       "Path to TOML topology seed",
			Required:    true,
			Sources:     cli.EnvVars("WORKBASKET_TOPOLOGY"),
			Destination: &topologyPath,
		},
	}
	flags = append(flags, repoCfg.Flags()...)

	return &cli.Command{
		Name:  "seed",
		Usage: "Provision work baskets and work groups from a topology file",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			topo, err := config.LoadTopologyConfig(topologyPath)
			if err != nil {
				return goerr.Wrap(err, "failed to load topology seed")
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			uc := usecase.New(repo)
			return applyTopology(ctx, uc, topo)
		},
	}
}

// applyTopology provisions groups then baskets from the seed. Idempotent:
// existing codes are kept and only missing members are added, so re-running
// against a live store is safe.
func applyTopology(ctx context.Context, uc *usecase.UseCases, topo *config.TopologyConfig) error {
	groupIDs := make(map[string]types.WorkGroupID, len(topo.Groups))

	for _, seed := range topo.Groups {
		g, err := uc.Topology.FindGroupByCode(ctx, seed.Code)
		if err != nil {
			return goerr.Wrap(err, "failed to look up work group", goerr.V("code", seed.Code))
		}

		if g == nil {
			created, err := uc.Topology.CreateGroup(ctx, seedActor,
				seed.Code, seed.Name, seed.Description, seed.FaxSourced, seed.PortalSourced)
			if err != nil {
				return goerr.Wrap(err, "failed to create work group", goerr.V("code", seed.Code))
			}
			g = created
			logging.Default().Info("created work group", "code", seed.Code, "id", g.ID.String())
		} else {
			logging.Default().Info("work group already exists", "code", seed.Code, "id", g.ID.String())
		}
		groupIDs[seed.Code] = g.ID

		for _, m := range seed.Members {
			if _, err := uc.Topology.AddGroupMember(ctx, seedActor, g.ID, types.UserID(m)); err != nil {
				return goerr.Wrap(err, "failed to add group member",
					goerr.V("code", seed.Code), goerr.V("member", m))
			}
		}
	}

	for _, seed := range topo.Baskets {
		b, err := uc.Topology.FindBasketByCode(ctx, seed.Code)
		if err != nil {
			return goerr.Wrap(err, "failed to look up work basket", goerr.V("code", seed.Code))
		}
		if b != nil {
			logging.Default().Info("work basket already exists", "code", seed.Code, "id", b.ID.String())
			continue
		}

		ids := make([]types.WorkGroupID, len(seed.Groups))
		for i, gc := range seed.Groups {
			ids[i] = groupIDs[gc]
		}

		created, err := uc.Topology.CreateBasket(ctx, seedActor,
			seed.Code, seed.Name, seed.Description, ids)
		if err != nil {
			return goerr.Wrap(err, "failed to create work basket", goerr.V("code", seed.Code))
		}
		logging.Default().Info("created work basket", "code", seed.Code, "id", created.ID.String())
	}

	return nil
}
