package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/client-portal/internal/httperr"
	"github.com/BruksfildServices01/client-portal/internal/httpresp"
	"github.com/BruksfildServices01/client-portal/internal/scheduler"
)

type JobsHandler struct {
	sched *scheduler.Scheduler
}

func NewJobsHandler(sched *scheduler.Scheduler) *JobsHandler {
	return &JobsHandler{sched: sched}
}

func (h *JobsHandler) List(c *gin.Context) {
	httpresp.List(c, h.sched.Jobs())
}

// Run triggers a job now and waits for its report.
func (h *JobsHandler) Run(c *gin.Context) {
	report, err := h.sched.Run(c.Request.Context(), c.Param("name"))
	if err != nil {
		httperr.FromError(c, err, "job_failed")
		return
	}
	httpresp.OK(c, report)
}
