package sqlstore

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"github.com/notevault/notevault/app/store"
	"github.com/notevault/notevault/pkg/register"
	"github.com/notevault/notevault/pkg/sqlstore"
	"github.com/notevault/notevault/pkg/types"
)

func init() {
	sq.StatementBuilder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

var provider = &Provider{
	stores: &Stores{},
}

func GetProvider() *Provider {
	return provider
}

type Provider struct {
	*sqlstore.SqlProvider
	stores *Stores
}

type Stores struct {
	store.SpaceRoleStore
	store.SpaceMemberStore
	store.SpaceInvitationStore
	store.UserStore
}

func (s *Provider) batchExecStoreFuncs(fname string) {
	val := reflect.ValueOf(s.stores)
	num := val.NumField()
	for i := 0; i < num; i++ {
		val.Field(i).MethodByName(fname).Call([]reflect.Value{})
	}
}

type RegisterKey struct{}

func MustSetup(m sqlstore.ConnectConfig, s ...sqlstore.ConnectConfig) func() *Provider {
	provider.SqlProvider = sqlstore.MustSetupProvider(m, s...)

	for _, f := range register.ResolveFuncHandlers[*Provider](RegisterKey{}) {
		f(provider)
	}

	return func() *Provider {
		return provider
	}
}

// Install 初始化所有数据表
func (p *Provider) Install() error {
	// 确保迁移记录表存在
	if err := p.ensureMigrationTable(); err != nil {
		return err
	}

	// 获取所有SQL文件
	files, err := CreateTableFiles.ReadDir(".")
	if err != nil {
		return err
	}

	for _, file := range files {
		if !file.IsDir() && strings.HasSuffix(file.Name(), ".sql") {
			// 检查文件是否已经执行过
			if executed, err := p.isFileExecuted(file.Name()); err != nil {
				return err
			} else if executed {
				continue
			}

			sql, err := CreateTableFiles.ReadFile(file.Name())
			if err != nil {
				return err
			}

			if _, err = p.SqlProvider.GetMaster().Exec(string(sql)); err != nil {
				return fmt.Errorf("failed to execute migration %s, %w", file.Name(), err)
			}

			if err = p.markFileExecuted(file.Name()); err != nil {
				return err
			}
		}
	}
	return nil
}

// ensureMigrationTable 确保迁移记录表存在
func (p *Provider) ensureMigrationTable() error {
	createTableSQL := `
CREATE TABLE IF NOT EXISTS ` + types.TABLE_PREFIX + `schema_migrations (
    filename VARCHAR(255) PRIMARY KEY,
    executed_at BIGINT NOT NULL
);`
	_, err := p.SqlProvider.GetMaster().Exec(createTableSQL)
	return err
}

// isFileExecuted 检查文件是否已经执行过
func (p *Provider) isFileExecuted(filename string) (bool, error) {
	var count int
	err := p.SqlProvider.GetReplica().Get(&count,
		"SELECT COUNT(*) FROM "+types.TABLE_PREFIX+"schema_migrations WHERE filename = $1", filename)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// markFileExecuted 标记文件为已执行
func (p *Provider) markFileExecuted(filename string) error {
	_, err := p.SqlProvider.GetMaster().Exec(
		"INSERT INTO "+types.TABLE_PREFIX+"schema_migrations (filename, executed_at) VALUES ($1, $2) ON CONFLICT (filename) DO NOTHING",
		filename, time.Now().Unix())
	return err
}

func (p *Provider) store() *Stores {
	return p.stores
}

func (p *Provider) SpaceRoleStore() store.SpaceRoleStore {
	return p.stores.SpaceRoleStore
}

func (p *Provider) SpaceMemberStore() store.SpaceMemberStore {
	return p.stores.SpaceMemberStore
}

func (p *Provider) SpaceInvitationStore() store.SpaceInvitationStore {
	return p.stores.SpaceInvitationStore
}

func (p *Provider) UserStore() store.UserStore {
	return p.stores.UserStore
}
