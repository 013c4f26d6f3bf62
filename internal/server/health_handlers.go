package server

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"
)

// LivenessCheck handles GET /health/live
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck checks every registered dependency concurrently and
// reports 503 when any of them is unhealthy.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	var mu sync.Mutex
	checks := make(fiber.Map, len(s.checks))
	healthy := true

	var g errgroup.Group
	for name, check := range s.checks {
		name, check := name, check
		g.Go(func() error {
			status := "healthy"
			if err := check(ctx); err != nil {
				status = "unhealthy"
			}
			mu.Lock()
			defer mu.Unlock()
			checks[name] = status
			if status != "healthy" {
				healthy = false
			}
			return nil
		})
	}
	_ = g.Wait()

	status := fiber.StatusOK
	overallStatus := "healthy"
	if !healthy {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"version": "1.0.0",
		"status":  overallStatus,
		"checks":  checks,
		"time":    time.Now(),
	})
}
