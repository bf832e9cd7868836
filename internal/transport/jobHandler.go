package transport

import (
	"net/http"

	"github.com/ds124wfegd/instafilter/internal/entity"
	"github.com/gin-gonic/gin"
)

func (h *JobHandler) SubmitJob(c *gin.Context) {
	name := c.PostForm("filter")
	c.Set("filter", name)

	file, err := c.FormFile("image")
	if err != nil {
		respondError(c, uploadError(err))
		return
	}

	data, err := readUpload(file, h.config.MaxUploadSize)
	if err != nil {
		respondError(c, err)
		return
	}

	job, err := h.service.Submit(c.Request.Context(), name, file.Filename, data)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Location", "/api/v1/jobs/"+job.ID)
	c.JSON(http.StatusAccepted, entity.SubmitResponse{
		ID:     job.ID,
		Status: job.Status,
	})
}

func (h *JobHandler) GetJob(c *gin.Context) {
	job, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := entity.JobResponse{
		ID:        job.ID,
		Filter:    job.Filter,
		Status:    job.Status,
		Error:     job.Error,
		CreatedAt: job.CreatedAt,
		UpdatedAt: job.UpdatedAt,
	}
	if job.Status == entity.JobCompleted {
		response.ResultURL = "/api/v1/jobs/" + job.ID + "/result"
	}

	c.JSON(http.StatusOK, response)
}

func (h *JobHandler) GetResult(c *gin.Context) {
	data, err := h.service.Result(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/jpeg", data)
}

func (h *JobHandler) DeleteJob(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Job deleted successfully"})
}
