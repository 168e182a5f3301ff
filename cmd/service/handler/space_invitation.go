package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	v1 "github.com/notevault/notevault/app/logic/v1"
	"github.com/notevault/notevault/app/response"
	"github.com/notevault/notevault/pkg/errors"
	"github.com/notevault/notevault/pkg/i18n"
	"github.com/notevault/notevault/pkg/types"
	"github.com/notevault/notevault/pkg/utils"
)

type CreateSpaceInvitationsRequest struct {
	SpaceRoleID   string   `json:"space_role_id" binding:"required"`
	Channel       string   `json:"channel" binding:"required"`
	InviteeEmails []string `json:"invitee_emails"`
}

func (s *HttpSrv) CreateSpaceInvitations(c *gin.Context) {
	var (
		err error
		req CreateSpaceInvitationsRequest
	)
	if err = utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	spaceID, _ := v1.InjectSpaceID(c)
	result, err := v1.NewSpaceInvitationLogic(c, s.Core).CreateInvitations(spaceID, v1.CreateInvitationArgs{
		SpaceRoleID:   req.SpaceRoleID,
		Channel:       types.SpaceInvitationChannel(req.Channel),
		InviteeEmails: req.InviteeEmails,
	})
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, result)
}

type ListSpaceInvitationsRequest struct {
	Status   int32  `json:"status" form:"status"`
	Page     uint64 `json:"page" form:"page"`
	PageSize uint64 `json:"pagesize" form:"pagesize"`
}

type ListSpaceInvitationsResponse struct {
	List  []v1.Invitation `json:"list"`
	Total int64           `json:"total"`
}

func (s *HttpSrv) ListSpaceInvitations(c *gin.Context) {
	var (
		err error
		req ListSpaceInvitationsRequest
	)
	if err = utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	spaceID, _ := v1.InjectSpaceID(c)
	list, total, err := v1.NewSpaceInvitationLogic(c, s.Core).ListInvitations(spaceID, types.ListSpaceInvitationOptions{
		Status: types.SpaceInvitationStatus(req.Status),
	}, req.Page, req.PageSize)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, ListSpaceInvitationsResponse{
		List:  list,
		Total: total,
	})
}

func getInvitationID(c *gin.Context) (int64, bool) {
	raw, _ := c.Params.Get("invitationid")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func (s *HttpSrv) GetSpaceInvitation(c *gin.Context) {
	id, ok := getInvitationID(c)
	if !ok {
		response.APIError(c, errors.New("HttpSrv.getInvitationID", i18n.ERROR_INVALIDARGUMENT, nil).Code(http.StatusBadRequest))
		return
	}

	spaceID, _ := v1.InjectSpaceID(c)
	invitation, err := v1.NewSpaceInvitationLogic(c, s.Core).GetInvitation(spaceID, id)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, invitation)
}

func (s *HttpSrv) ResendSpaceInvitation(c *gin.Context) {
	id, ok := getInvitationID(c)
	if !ok {
		response.APIError(c, errors.New("HttpSrv.getInvitationID", i18n.ERROR_INVALIDARGUMENT, nil).Code(http.StatusBadRequest))
		return
	}

	spaceID, _ := v1.InjectSpaceID(c)
	result, err := v1.NewSpaceInvitationLogic(c, s.Core).ResendInvitation(spaceID, id)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, result)
}

func (s *HttpSrv) RevokeSpaceInvitation(c *gin.Context) {
	id, ok := getInvitationID(c)
	if !ok {
		response.APIError(c, errors.New("HttpSrv.getInvitationID", i18n.ERROR_INVALIDARGUMENT, nil).Code(http.StatusBadRequest))
		return
	}

	spaceID, _ := v1.InjectSpaceID(c)
	if err := v1.NewSpaceInvitationLogic(c, s.Core).RevokeInvitation(spaceID, id); err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, nil)
}

type AcceptSpaceInvitationRequest struct {
	Token string `json:"token" binding:"required"`
}

func (s *HttpSrv) AcceptSpaceInvitation(c *gin.Context) {
	var (
		err error
		req AcceptSpaceInvitationRequest
	)
	if err = utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	result, err := v1.NewSpaceInvitationLogic(c, s.Core).AcceptInvitation(req.Token)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, result)
}
