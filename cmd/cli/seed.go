package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aryan0dhankhar/outreach/internal/domain"
	"github.com/aryan0dhankhar/outreach/internal/infrastructure/logger"
	"github.com/aryan0dhankhar/outreach/internal/infrastructure/redis"
	"github.com/aryan0dhankhar/outreach/internal/repository"
	"github.com/aryan0dhankhar/outreach/pkg/cache"
	"github.com/aryan0dhankhar/outreach/pkg/config"
	"github.com/aryan0dhankhar/outreach/pkg/database"
)

var defaultMembers = []string{"Imane", "Younes", "Zakaria", "Karim", "Shelbry"}

// seedFile is the YAML member roster accepted by "outreach seed"
type seedFile struct {
	Members []struct {
		Name   string `yaml:"name"`
		Active *bool  `yaml:"active"`
	} `yaml:"members"`
}

// parseSeedFile reads a roster. Members are active unless marked otherwise.
func parseSeedFile(raw []byte) ([]*domain.Member, error) {
	var file seedFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	seen := map[string]bool{}
	members := make([]*domain.Member, 0, len(file.Members))
	for i, m := range file.Members {
		name := strings.TrimSpace(m.Name)
		if name == "" {
			return nil, fmt.Errorf("member %d: name is required", i)
		}
		if name == domain.AdminActor {
			return nil, fmt.Errorf("member %d: %q is reserved", i, name)
		}
		if seen[name] {
			return nil, fmt.Errorf("member %d: duplicate name %q", i, name)
		}
		seen[name] = true
		active := m.Active == nil || *m.Active
		members = append(members, &domain.Member{Name: name, IsActive: active})
	}
	return members, nil
}

// operatorEnv is what the database commands share
type operatorEnv struct {
	cfg  *config.Config
	pool *database.ConnectionPool
	log  *slog.Logger
}

func openDatabase(ctx context.Context) (*operatorEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logger.NewLogger(cfg.LogLevel, "text")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	pool, err := database.NewConnectionPool(ctx, &database.Config{
		URL:             cfg.DatabaseURL,
		MaxOpenConns:    2,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Minute,
	}, log)
	if err != nil {
		return nil, err
	}
	if err := pool.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &operatorEnv{cfg: cfg, pool: pool, log: log}, nil
}

// memberDirectory writes members through the server's shared member cache
// when Redis is configured, so a deactivation takes effect before the TTL.
func (e *operatorEnv) memberDirectory(ctx context.Context) (*repository.MemberDirectory, func(), error) {
	members := repository.NewPostgresMemberRepository(e.pool.GetDB(), e.log)
	if e.cfg.RedisURL == "" {
		e.log.Warn("REDIS_URL not set: running servers keep cached members until the TTL expires")
		return repository.NewMemberDirectory(members, nil, 0, e.log), func() {}, nil
	}
	client, err := redis.NewClient(ctx, e.cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	store := cache.NewRedisStore(client.Raw(), cache.ServicePrefix)
	dir := repository.NewMemberDirectory(members, store, e.cfg.MemberCacheTTL, e.log)
	return dir, func() { _ = client.Close() }, nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations using DATABASE_URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openDatabase(cmd.Context())
			if err != nil {
				return err
			}
			defer env.pool.Close()
			fmt.Println("Migrations applied")
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Upsert team members from a YAML roster using DATABASE_URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			var members []*domain.Member
			if file == "" {
				for _, name := range defaultMembers {
					members = append(members, &domain.Member{Name: name, IsActive: true})
				}
			} else {
				raw, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				if members, err = parseSeedFile(raw); err != nil {
					return err
				}
			}

			ctx := cmd.Context()
			env, err := openDatabase(ctx)
			if err != nil {
				return err
			}
			defer env.pool.Close()

			dir, closeDir, err := env.memberDirectory(ctx)
			if err != nil {
				return err
			}
			defer closeDir()

			for _, m := range members {
				if err := dir.Save(ctx, m); err != nil {
					return err
				}
				fmt.Printf("%-12s active=%v id=%s\n", m.Name, m.IsActive, m.ID)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML roster (default: built-in team)")
	return cmd
}
