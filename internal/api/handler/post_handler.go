package handler

import (
	"Watchtower/internal/api/dto"
	"Watchtower/internal/pkg/response"
	"Watchtower/internal/service"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/copier"
)

type PostHandler struct {
	postSvc service.PostService
}

func NewPostHandler(postSvc service.PostService) *PostHandler {
	return &PostHandler{postSvc: postSvc}
}

func (s *PostHandler) ListByOrg(c *gin.Context) {
	orgID, err := strconv.ParseUint(c.Param("org_id"), 10, 64)
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))

	posts, total, err := s.postSvc.ListByOrg(c.Request.Context(), orgID, page, size)
	if err != nil {
		response.Error(c, err)
		return
	}

	postDTOs := make([]dto.PostDTO, 0, len(posts))
	if err := copier.Copy(&postDTOs, posts); err != nil {
		response.Error(c, service.UnExpectedError)
		return
	}
	response.Success(c, dto.PageDTO{List: postDTOs, Total: total, Page: page, Size: size})
}

func (s *PostHandler) Search(c *gin.Context) {
	keyword := c.Query("q")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))

	docs, total, err := s.postSvc.Search(c.Request.Context(), keyword, page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.PageDTO{List: docs, Total: total, Page: page, Size: size})
}
