package controller

import (
	"neet_tracker_backend/internal/service"
	"neet_tracker_backend/internal/util"
	"net/http"

	"github.com/gin-gonic/gin"
)

type TestController struct {
	Tests         *service.TestRecordService
	Notifications *service.NotificationService
	Reports       *service.ReportService
}

func NewTestController(tests *service.TestRecordService, notifications *service.NotificationService, reports *service.ReportService) *TestController {
	return &TestController{
		Tests:         tests,
		Notifications: notifications,
		Reports:       reports,
	}
}

// Preview godoc
// @Summary Score questions without saving
// @Tags tests
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.PreviewRequest true "questions"
// @Success 200 {object} util.Response{data=scoring.Aggregate}
// @Failure 400 {object} util.Response
// @Router /tests/preview [post]
func (c *TestController) Preview(ctx *gin.Context) {
	var req service.PreviewRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	agg, err := c.Tests.Preview(req)
	if err != nil {
		respondError(ctx, err, "Failed to score questions")
		return
	}
	util.Success(ctx, agg)
}

// List godoc
// @Summary List test records, newest first
// @Tags tests
// @Produce json
// @Security ApiKeyAuth
// @Param subject query string false "Physics, Chemistry or Biology"
// @Success 200 {object} util.Response{data=[]model.TestRecord}
// @Router /tests [get]
func (c *TestController) List(ctx *gin.Context) {
	records, err := c.Tests.List(ctx.Request.Context(), util.CurrentUser(ctx).ID, ctx.Query("subject"))
	if err != nil {
		respondError(ctx, err, "Failed to fetch tests")
		return
	}
	util.Success(ctx, records)
}

// Stats godoc
// @Summary Score summary across all tests
// @Tags tests
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.StatsSummary}
// @Router /tests/stats/summary [get]
func (c *TestController) Stats(ctx *gin.Context) {
	summary, err := c.Tests.Stats(ctx.Request.Context(), util.CurrentUser(ctx).ID)
	if err != nil {
		respondError(ctx, err, "Failed to fetch statistics")
		return
	}
	util.Success(ctx, summary)
}

// Get godoc
// @Summary One test record
// @Tags tests
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "record id"
// @Success 200 {object} util.Response{data=model.TestRecord}
// @Failure 404 {object} util.Response
// @Router /tests/{id} [get]
func (c *TestController) Get(ctx *gin.Context) {
	record, err := c.Tests.Get(ctx.Request.Context(), util.CurrentUser(ctx).ID, ctx.Param("id"))
	if err != nil {
		respondError(ctx, err, "Failed to fetch test")
		return
	}
	util.Success(ctx, record)
}

// Create godoc
// @Summary Save a test record
// @Description Aggregates are always recomputed from the questions
// @Tags tests
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.CreateTestRequest true "test"
// @Success 201 {object} util.Response{data=model.TestRecord}
// @Failure 400 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /tests [post]
func (c *TestController) Create(ctx *gin.Context) {
	var req service.CreateTestRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	record, err := c.Tests.Create(ctx.Request.Context(), util.CurrentUser(ctx).ID, req)
	if err != nil {
		respondError(ctx, err, "Failed to save test")
		return
	}
	util.Created(ctx, record)
}

// Update godoc
// @Summary Update a test record
// @Tags tests
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "record id"
// @Param body body service.UpdateTestRequest true "fields to change"
// @Success 200 {object} util.Response{data=model.TestRecord}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /tests/{id} [put]
func (c *TestController) Update(ctx *gin.Context) {
	var req service.UpdateTestRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	record, err := c.Tests.Update(ctx.Request.Context(), util.CurrentUser(ctx).ID, ctx.Param("id"), req)
	if err != nil {
		respondError(ctx, err, "Failed to update test")
		return
	}
	util.Success(ctx, record)
}

// Delete godoc
// @Summary Delete a test record
// @Tags tests
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "record id"
// @Success 200 {object} util.Response{data=service.DeleteResult}
// @Failure 404 {object} util.Response
// @Router /tests/{id} [delete]
func (c *TestController) Delete(ctx *gin.Context) {
	id := ctx.Param("id")
	if err := c.Tests.Delete(ctx.Request.Context(), util.CurrentUser(ctx).ID, id); err != nil {
		respondError(ctx, err, "Failed to delete test")
		return
	}
	util.Success(ctx, service.DeleteResult{Message: "Test deleted successfully", ID: id})
}

// DeleteAll godoc
// @Summary Delete every test record of the user
// @Tags tests
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.DeleteResult}
// @Router /tests [delete]
func (c *TestController) DeleteAll(ctx *gin.Context) {
	n, err := c.Tests.DeleteAll(ctx.Request.Context(), util.CurrentUser(ctx).ID)
	if err != nil {
		respondError(ctx, err, "Failed to clear tests")
		return
	}
	util.Success(ctx, service.DeleteResult{Message: "All tests cleared successfully", DeletedCount: &n})
}

// SendEmail godoc
// @Summary Email the results to the guardian
// @Tags tests
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "record id"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response "not sent"
// @Failure 404 {object} util.Response
// @Router /tests/{id}/send-email [post]
func (c *TestController) SendEmail(ctx *gin.Context) {
	user := util.CurrentUser(ctx)
	record, err := c.Tests.Get(ctx.Request.Context(), user.ID, ctx.Param("id"))
	if err != nil {
		respondError(ctx, err, "Failed to send email")
		return
	}

	if !user.HasGuardian() {
		respondError(ctx, util.ErrNoGuardianEmail, "")
		return
	}
	if !c.Notifications.SendTestResults(ctx.Request.Context(), user, record) {
		util.BadRequest(ctx, "Failed to send email. Please check the guardian email and SMTP configuration.")
		return
	}
	util.Success(ctx, gin.H{"message": "Test results sent to guardian email", "to": user.GuardianEmail})
}

// Report godoc
// @Summary HTML results report
// @Tags tests
// @Produce html
// @Security ApiKeyAuth
// @Param id path string true "record id"
// @Success 200 {string} string "report page"
// @Failure 404 {object} util.Response
// @Router /tests/{id}/report [get]
func (c *TestController) Report(ctx *gin.Context) {
	user := util.CurrentUser(ctx)
	record, err := c.Tests.Get(ctx.Request.Context(), user.ID, ctx.Param("id"))
	if err != nil {
		respondError(ctx, err, "Failed to render report")
		return
	}

	report, err := c.Reports.Render(user, record)
	if err != nil {
		util.LogInternalError(ctx, err, "Failed to render report")
		return
	}
	ctx.Data(http.StatusOK, util.MimeHTML, []byte(report.HTML))
}

// ArchiveReport godoc
// @Summary Store the HTML report in object storage
// @Tags tests
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "record id"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /tests/{id}/report/archive [post]
func (c *TestController) ArchiveReport(ctx *gin.Context) {
	user := util.CurrentUser(ctx)
	record, err := c.Tests.Get(ctx.Request.Context(), user.ID, ctx.Param("id"))
	if err != nil {
		respondError(ctx, err, "Failed to archive report")
		return
	}

	url, err := c.Reports.Archive(ctx.Request.Context(), user, record)
	if err != nil {
		util.LogInternalError(ctx, err, "Failed to archive report")
		return
	}
	util.Success(ctx, gin.H{"url": url})
}
