package rest

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	jobsApp "github.com/blogsmith/blogsmith/jobs/application"
	jobsDomain "github.com/blogsmith/blogsmith/jobs/domain"
	pkgError "github.com/blogsmith/blogsmith/pkg/error"
	"github.com/blogsmith/blogsmith/pkg/utils"
	"github.com/blogsmith/blogsmith/validations"
)

type Jobs struct {
	Worker *jobsApp.Worker
	Repo   jobsDomain.IJobRepository
}

func InitRestJobs(app fiber.Router, worker *jobsApp.Worker, repo jobsDomain.IJobRepository) Jobs {
	handler := Jobs{Worker: worker, Repo: repo}

	group := app.Group("/api/jobs")
	group.Post("/generate", handler.Generate)
	group.Post("/publish", handler.Publish)
	group.Get("/:id", handler.GetByID)
	group.Get("/", handler.ListByUser)

	return handler
}

// Generate queues an on-demand post generation for a user.
func (h *Jobs) Generate(c *fiber.Ctx) error {
	var request validations.GenerateJobRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	err = validations.ValidateGenerateJob(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	job := &jobsDomain.Job{
		ID:     uuid.NewString(),
		Kind:   jobsDomain.JobGeneratePost,
		UserID: request.UserID,
	}
	err = h.Worker.Enqueue(c.UserContext(), job)
	utils.PanicIfNeeded(err)

	return c.Status(fiber.StatusAccepted).JSON(utils.ResponseData{
		Status:  202,
		Code:    "SUCCESS",
		Message: "Generation job queued",
		Results: job,
	})
}

// Publish queues an on-demand publish of an existing post.
func (h *Jobs) Publish(c *fiber.Ctx) error {
	var request validations.PublishJobRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	err = validations.ValidatePublishJob(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	job := &jobsDomain.Job{
		ID:     uuid.NewString(),
		Kind:   jobsDomain.JobPublishPost,
		UserID: request.UserID,
		PostID: request.PostID,
	}
	err = h.Worker.Enqueue(c.UserContext(), job)
	utils.PanicIfNeeded(err)

	return c.Status(fiber.StatusAccepted).JSON(utils.ResponseData{
		Status:  202,
		Code:    "SUCCESS",
		Message: "Publish job queued",
		Results: job,
	})
}

func (h *Jobs) GetByID(c *fiber.Ctx) error {
	job, err := h.Repo.GetByID(c.UserContext(), c.Params("id"))
	if errors.Is(err, jobsDomain.ErrJobNotFound) {
		panic(pkgError.NotFoundError("job not found"))
	}
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Job retrieved",
		Results: job,
	})
}

func (h *Jobs) ListByUser(c *fiber.Ctx) error {
	userID := c.Query("user_id")
	if userID == "" {
		panic(pkgError.ValidationError("user_id: cannot be blank."))
	}
	limit := c.QueryInt("limit", 20)

	jobs, err := h.Repo.ListByUser(c.UserContext(), userID, limit)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Jobs retrieved",
		Results: jobs,
	})
}
