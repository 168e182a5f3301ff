package handler

import (
	"github.com/gin-gonic/gin"

	v1 "github.com/notevault/notevault/app/logic/v1"
	"github.com/notevault/notevault/app/response"
	"github.com/notevault/notevault/pkg/types"
	"github.com/notevault/notevault/pkg/utils"
)

func (s *HttpSrv) EnsureBuiltInRoles(c *gin.Context) {
	spaceID, _ := v1.InjectSpaceID(c)

	result, err := v1.NewSpaceRoleLogic(c, s.Core).EnsureBuiltInRoles(spaceID)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, result)
}

type ListSpaceRolesResponse struct {
	List  []types.SpaceRole `json:"list"`
	Total int64             `json:"total"`
}

func (s *HttpSrv) ListSpaceRoles(c *gin.Context) {
	spaceID, _ := v1.InjectSpaceID(c)

	list, total, err := v1.NewSpaceRoleLogic(c, s.Core).ListRoles(spaceID)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, ListSpaceRolesResponse{
		List:  list,
		Total: total,
	})
}

func (s *HttpSrv) GetSpaceRole(c *gin.Context) {
	spaceID, _ := v1.InjectSpaceID(c)
	roleID, _ := c.Params.Get("roleid")

	role, err := v1.NewSpaceRoleLogic(c, s.Core).GetRole(spaceID, roleID)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, role)
}

type CreateSpaceRoleRequest struct {
	Name        string                `json:"name" binding:"required"`
	Description string                `json:"description"`
	Permissions []types.PermissionKey `json:"permissions"`
}

func (s *HttpSrv) CreateSpaceRole(c *gin.Context) {
	var (
		err error
		req CreateSpaceRoleRequest
	)
	if err = utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	spaceID, _ := v1.InjectSpaceID(c)
	role, err := v1.NewSpaceRoleLogic(c, s.Core).CreateRole(spaceID, req.Name, req.Description, req.Permissions)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, role)
}

type UpdateSpaceRoleRequest struct {
	Name        *string               `json:"name"`
	Description *string               `json:"description"`
	Permissions []types.PermissionKey `json:"permissions"`
}

func (s *HttpSrv) UpdateSpaceRole(c *gin.Context) {
	var (
		err error
		req UpdateSpaceRoleRequest
	)
	if err = utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	spaceID, _ := v1.InjectSpaceID(c)
	roleID, _ := c.Params.Get("roleid")

	role, err := v1.NewSpaceRoleLogic(c, s.Core).UpdateRole(spaceID, roleID, types.UpdateSpaceRoleArgs{
		Name:        req.Name,
		Description: req.Description,
		Permissions: req.Permissions,
	})
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, role)
}

func (s *HttpSrv) DeleteSpaceRole(c *gin.Context) {
	spaceID, _ := v1.InjectSpaceID(c)
	roleID, _ := c.Params.Get("roleid")

	result, err := v1.NewSpaceRoleLogic(c, s.Core).DeleteRole(spaceID, roleID)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, result)
}

func (s *HttpSrv) ListPermissions(c *gin.Context) {
	response.APISuccess(c, types.PermissionCatalog())
}
