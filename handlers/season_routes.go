// handlers/season_routes.go
package handlers

import (
	"log"
	"strconv"

	"season-reward-system/middleware"
	"season-reward-system/services"

	"github.com/gofiber/fiber/v2"
)

// respondDomain maps a service outcome to the {success, error?} shape the
// client branches on. Domain outcomes are 200s — they are expected results,
// not failures. Infrastructure errors stay 500.
func respondDomain(c *fiber.Ctx, err error) error {
	if err == nil {
		return c.JSON(fiber.Map{"success": true})
	}
	if services.IsDomainError(err) {
		return c.JSON(fiber.Map{"success": false, "error": err.Error()})
	}
	log.Printf("ERROR %s %s: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
}

func SetupSeasonRoutes(
	app *fiber.App,
	content *services.SeasonContent,
	tracker *services.SeasonProgressTracker,
	battlePass *services.BattlePassEngine,
	distributor *services.LeaderboardRewardDistributor,
	events *services.SeasonEventService,
) {
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Get("/season/progress", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		view, err := tracker.GetSeasonProgress(userID)
		if err != nil {
			return respondDomain(c, err)
		}
		return c.JSON(view)
	})

	secured.Get("/season/leaderboard", func(c *fiber.Ctx) error {
		season, err := content.ResolveSeason()
		if err != nil {
			return respondDomain(c, err)
		}
		limit, _ := strconv.Atoi(c.Query("limit", "100"))
		rows, err := tracker.ComputeLeaderboard(season.ID, limit)
		if err != nil {
			return respondDomain(c, err)
		}
		return c.JSON(fiber.Map{"season_id": season.ID, "entries": rows})
	})

	secured.Post("/season/constructions", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		var req struct {
			Tier            int     `json:"tier"`
			DurationMinutes float64 `json:"duration_minutes"`
			Quality         float64 `json:"quality"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		if req.Quality == 0 {
			req.Quality = 1.0
		}
		reward, err := tracker.RecordConstruction(userID, req.Tier, req.DurationMinutes, req.Quality)
		if err != nil {
			return respondDomain(c, err)
		}
		return c.JSON(fiber.Map{"success": true, "reward": reward})
	})

	secured.Get("/season/battle-pass", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		view, err := battlePass.GetView(userID)
		if err != nil {
			return respondDomain(c, err)
		}
		return c.JSON(view)
	})

	secured.Post("/season/battle-pass/purchase", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		return respondDomain(c, battlePass.Purchase(userID))
	})

	secured.Post("/season/battle-pass/claim", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		var req struct {
			Tier  int    `json:"tier"`
			Track string `json:"track"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		return respondDomain(c, battlePass.Claim(userID, req.Tier, req.Track))
	})

	secured.Post("/season/leaderboard/claim", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		return respondDomain(c, distributor.ClaimLeaderboardReward(userID))
	})

	secured.Post("/season/events/:id/participate", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		return respondDomain(c, events.Participate(userID, c.Params("id")))
	})

	secured.Post("/season/events/:id/claim", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		return respondDomain(c, events.ClaimEventReward(userID, c.Params("id")))
	})

	// Operator endpoints — both safely re-runnable
	adminGroup := app.Group("/s/admin", middleware.ServiceAuthMiddleware())

	adminGroup.Post("/season/ranks/refresh", func(c *fiber.Ctx) error {
		season, err := content.ResolveSeason()
		if err != nil {
			return respondDomain(c, err)
		}
		count, err := tracker.RefreshStoredRanks(season.ID)
		if err != nil {
			return respondDomain(c, err)
		}
		return c.JSON(fiber.Map{"success": true, "ranked": count})
	})

	adminGroup.Post("/season/rewards/distribute", func(c *fiber.Ctx) error {
		force := c.Query("force") == "true"
		result, err := distributor.Distribute(force)
		if err != nil {
			return respondDomain(c, err)
		}
		return c.JSON(result)
	})
}
