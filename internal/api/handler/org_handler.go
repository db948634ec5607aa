package handler

import (
	"Watchtower/internal/api/dto"
	"Watchtower/internal/pkg/response"
	"Watchtower/internal/service"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/copier"
)

type OrgHandler struct {
	orgSvc service.OrgService
}

func NewOrgHandler(orgSvc service.OrgService) *OrgHandler {
	return &OrgHandler{orgSvc: orgSvc}
}

func (s *OrgHandler) Create(c *gin.Context) {
	var createDTO dto.CreateOrgDTO
	if err := c.ShouldBind(&createDTO); err != nil {
		response.Error(c, err)
		return
	}

	org, err := s.orgSvc.Register(c.Request.Context(), createDTO.Name, createDTO.Handle)
	if err != nil {
		response.Error(c, err)
		return
	}

	var orgDTO dto.OrgDTO
	if err := copier.Copy(&orgDTO, org); err != nil {
		response.Error(c, service.UnExpectedError)
		return
	}
	response.Success(c, orgDTO)
}

func (s *OrgHandler) Update(c *gin.Context) {
	orgID, err := strconv.ParseUint(c.Param("org_id"), 10, 64)
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	var updateDTO dto.UpdateOrgDTO
	if err := c.ShouldBind(&updateDTO); err != nil {
		response.Error(c, err)
		return
	}

	org, err := s.orgSvc.Update(c.Request.Context(), orgID, updateDTO.Name, updateDTO.Handle)
	if err != nil {
		response.Error(c, err)
		return
	}

	var orgDTO dto.OrgDTO
	if err := copier.Copy(&orgDTO, org); err != nil {
		response.Error(c, service.UnExpectedError)
		return
	}
	response.Success(c, orgDTO)
}

func (s *OrgHandler) Delete(c *gin.Context) {
	orgID, err := strconv.ParseUint(c.Param("org_id"), 10, 64)
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	if err := s.orgSvc.Delete(c.Request.Context(), orgID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

func (s *OrgHandler) Get(c *gin.Context) {
	orgID, err := strconv.ParseUint(c.Param("org_id"), 10, 64)
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	org, err := s.orgSvc.Get(c.Request.Context(), orgID)
	if err != nil {
		response.Error(c, err)
		return
	}

	var orgDTO dto.OrgDTO
	if err := copier.Copy(&orgDTO, org); err != nil {
		response.Error(c, service.UnExpectedError)
		return
	}
	response.Success(c, orgDTO)
}

func (s *OrgHandler) List(c *gin.Context) {
	orgs, err := s.orgSvc.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	orgDTOs := make([]dto.OrgDTO, 0, len(orgs))
	if err := copier.Copy(&orgDTOs, orgs); err != nil {
		response.Error(c, service.UnExpectedError)
		return
	}
	response.Success(c, orgDTOs)
}
