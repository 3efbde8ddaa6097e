package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/domain"
)

type AdminHandler struct {
	service *app.AdminService
	logger  logrus.FieldLogger
}

func NewAdminHandler(service *app.AdminService, logger logrus.FieldLogger) *AdminHandler {
	return &AdminHandler{service: service, logger: logger}
}

type questionRequest struct {
	Text               string   `json:"text" binding:"required"`
	Options            []string `json:"options" binding:"required,len=4,dive,required"`
	CorrectOptionIndex *int     `json:"correctOptionIndex" binding:"required,min=0,max=3"`
	Category           string   `json:"category" binding:"required,quizcategory"`
	Difficulty         string   `json:"difficulty" binding:"required,quizdifficulty"`
	Explanation        string   `json:"explanation" binding:"required"`
	ImageURL           string   `json:"imageUrl" binding:"omitempty,url"`
}

func (r questionRequest) toQuestion() domain.Question {
	options := make([]string, len(r.Options))
	for i, o := range r.Options {
		options[i] = strings.TrimSpace(o)
	}
	return domain.Question{
		Text:               strings.TrimSpace(r.Text),
		Options:            options,
		CorrectOptionIndex: *r.CorrectOptionIndex,
		Category:           domain.Category(r.Category),
		Difficulty:         domain.Difficulty(r.Difficulty),
		Explanation:        strings.TrimSpace(r.Explanation),
		ImageURL:           r.ImageURL,
	}
}

type listQuery struct {
	Category   string `form:"category" binding:"omitempty,quizcategory"`
	Difficulty string `form:"difficulty" binding:"omitempty,quizdifficulty"`
	Search     string `form:"search"`
	Page       int    `form:"page" binding:"omitempty,min=1"`
	Limit      int    `form:"limit" binding:"omitempty,min=1"`
}

type importRequest struct {
	Questions []domain.Question `json:"questions" binding:"required,min=1"`
}

func (h *AdminHandler) List(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}
	page, err := h.service.List(c.Request.Context(), domain.QuestionFilter{
		Category:   domain.Category(q.Category),
		Difficulty: domain.Difficulty(q.Difficulty),
		Search:     q.Search,
		Page:       q.Page,
		Limit:      q.Limit,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"questions": page.Questions,
		"pagination": gin.H{
			"page":  page.Page,
			"limit": page.Limit,
			"total": page.Total,
			"pages": page.Pages,
		},
	})
}

func (h *AdminHandler) Get(c *gin.Context) {
	q, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

func (h *AdminHandler) Create(c *gin.Context) {
	var req questionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	q, err := h.service.Create(c.Request.Context(), req.toQuestion())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "question created", "question": q})
}

func (h *AdminHandler) Update(c *gin.Context) {
	var req questionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	q := req.toQuestion()
	q.ID = c.Param("id")
	updated, err := h.service.Update(c.Request.Context(), q)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "question updated", "question": updated})
}

func (h *AdminHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "question deleted"})
}

func (h *AdminHandler) Import(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	result, err := h.service.Import(c.Request.Context(), req.Questions)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	if result.Imported == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "no valid questions found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  "questions imported successfully",
		"imported": result.Imported,
		"total":    result.Total,
	})
}

func (h *AdminHandler) Export(c *gin.Context) {
	questions, err := h.service.Export(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"questions":  questions,
		"total":      len(questions),
		"exportDate": time.Now().UTC(),
	})
}
