package handler

import (
	"github.com/gin-gonic/gin"

	v1 "github.com/notevault/notevault/app/logic/v1"
	"github.com/notevault/notevault/app/response"
	"github.com/notevault/notevault/pkg/types"
	"github.com/notevault/notevault/pkg/utils"
)

type ListSpaceMembersRequest struct {
	Keywords string `json:"keywords" form:"keywords"`
	Page     uint64 `json:"page" form:"page"`
	PageSize uint64 `json:"pagesize" form:"pagesize"`
}

type ListSpaceMembersResponse struct {
	List  []types.SpaceMemberDetail `json:"list"`
	Total int64                     `json:"total"`
}

func (s *HttpSrv) ListSpaceMembers(c *gin.Context) {
	var (
		err error
		req ListSpaceMembersRequest
	)
	if err = utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	spaceID, _ := v1.InjectSpaceID(c)
	list, total, err := v1.NewSpaceMemberLogic(c, s.Core).ListMembers(spaceID, req.Keywords, req.Page, req.PageSize)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, ListSpaceMembersResponse{
		List:  list,
		Total: total,
	})
}

type UpdateSpaceMemberRoleRequest struct {
	MemberID    string `json:"member_id" binding:"required"`
	SpaceRoleID string `json:"space_role_id" binding:"required"`
}

func (s *HttpSrv) UpdateSpaceMemberRole(c *gin.Context) {
	var (
		err error
		req UpdateSpaceMemberRoleRequest
	)
	if err = utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	spaceID, _ := v1.InjectSpaceID(c)
	if err = v1.NewSpaceMemberLogic(c, s.Core).UpdateMemberRole(spaceID, req.MemberID, req.SpaceRoleID); err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, nil)
}

type BatchUpdateSpaceMemberRoleRequest struct {
	MemberIDs   []string `json:"member_ids" binding:"required"`
	SpaceRoleID string   `json:"space_role_id" binding:"required"`
}

func (s *HttpSrv) BatchUpdateSpaceMemberRole(c *gin.Context) {
	var (
		err error
		req BatchUpdateSpaceMemberRoleRequest
	)
	if err = utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	spaceID, _ := v1.InjectSpaceID(c)
	if err = v1.NewSpaceMemberLogic(c, s.Core).BatchUpdateMemberRole(spaceID, req.MemberIDs, req.SpaceRoleID); err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, nil)
}

func (s *HttpSrv) RemoveSpaceMember(c *gin.Context) {
	spaceID, _ := v1.InjectSpaceID(c)
	memberID, _ := c.Params.Get("memberid")

	if err := v1.NewSpaceMemberLogic(c, s.Core).RemoveMember(spaceID, memberID); err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, nil)
}

type BatchRemoveSpaceMembersRequest struct {
	MemberIDs []string `json:"member_ids" binding:"required"`
}

func (s *HttpSrv) BatchRemoveSpaceMembers(c *gin.Context) {
	var (
		err error
		req BatchRemoveSpaceMembersRequest
	)
	if err = utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	spaceID, _ := v1.InjectSpaceID(c)
	if err = v1.NewSpaceMemberLogic(c, s.Core).BatchRemoveMembers(spaceID, req.MemberIDs); err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, nil)
}
