package types

import "fmt"

type TableName string

func (s TableName) Name() string {
	return fmt.Sprintf("%s%s", TABLE_PREFIX, s)
}

const TABLE_PREFIX = "nv_"

const (
	TABLE_SPACE_ROLE       = TableName("space_role")
	TABLE_SPACE_MEMBER     = TableName("space_member")
	TABLE_SPACE_INVITATION = TableName("space_invitation")
	TABLE_USER             = TableName("user")
)
