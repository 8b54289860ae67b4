package minerva

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	infra "github.com/Apiara/ControlMBridge/infrastructure"
	"github.com/go-redis/redis/v8"
)

const (
	savedFilePerms  = 0644
	storageDirPerms = 0755
)

const (
	// Key mapping environment and safe filename to the saved definitions document
	redisDefinitionKey = "minerva:definition:"

	// Key mapping environment to the set of filenames saved under it
	redisEnvironmentFilesKey = "minerva:files:"
)

/*
DefinitionStore represents an object that keeps the definitions documents
accepted by the service. Save returns a description of where the document
was stored
*/
type DefinitionStore interface {
	Save(env, filename string, definitions json.RawMessage) (string, error)
	Load(env, filename string) (json.RawMessage, error)
}

// indentDefinitions renders definitions the way they are stored and uploaded
func indentDefinitions(definitions json.RawMessage) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, definitions, "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FilesystemDefinitionStore writes each document to a file under a root directory
type FilesystemDefinitionStore struct {
	rootDir string
}

func NewFilesystemDefinitionStore(rootDir string) (*FilesystemDefinitionStore, error) {
	if err := os.MkdirAll(rootDir, storageDirPerms); err != nil {
		return nil, fmt.Errorf("failed to create storage directory(%s): %w", rootDir, err)
	}
	return &FilesystemDefinitionStore{rootDir}, nil
}

func (f *FilesystemDefinitionStore) path(env, filename string) string {
	return filepath.Join(f.rootDir, filepath.Base(env), filepath.Base(filename))
}

func (f *FilesystemDefinitionStore) Save(env, filename string, definitions json.RawMessage) (string, error) {
	data, err := indentDefinitions(definitions)
	if err != nil {
		return "", fmt.Errorf("failed to render definitions %s: %w", filename, err)
	}

	fname := f.path(env, filename)
	if err = os.MkdirAll(filepath.Dir(fname), storageDirPerms); err != nil {
		return "", fmt.Errorf("failed to create environment directory for %s: %w", env, err)
	}
	if err = os.WriteFile(fname, data, savedFilePerms); err != nil {
		return "", fmt.Errorf("failed to write definitions %s: %w", fname, err)
	}
	return fname, nil
}

func (f *FilesystemDefinitionStore) Load(env, filename string) (json.RawMessage, error) {
	data, err := os.ReadFile(f.path(env, filename))
	if err != nil {
		return nil, fmt.Errorf("failed to read definitions %s for %s: %w", filename, env, err)
	}
	return data, nil
}

/*
RedisDefinitionStore implements DefinitionStore using redis. Filenames are
hashed into keys so they may contain any character
*/
type RedisDefinitionStore struct {
	rdb *redis.Client
	ctx context.Context
}

// NewRedisDefinitionStore creates a new RedisDefinitionStore
func NewRedisDefinitionStore(addr string) *RedisDefinitionStore {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: "",
		DB:       0,
	})
	return &RedisDefinitionStore{
		rdb: client,
		ctx: context.Background(),
	}
}

func definitionKey(env, filename string) string {
	return redisDefinitionKey + env + ":" + infra.URLToSafeName(filename)
}

func (r *RedisDefinitionStore) Save(env, filename string, definitions json.RawMessage) (string, error) {
	data, err := indentDefinitions(definitions)
	if err != nil {
		return "", fmt.Errorf("failed to render definitions %s: %w", filename, err)
	}

	key := definitionKey(env, filename)
	if err = r.rdb.Set(r.ctx, key, data, 0).Err(); err != nil {
		return "", fmt.Errorf("failed to store definitions %s: %w", filename, err)
	}
	if err = r.rdb.SAdd(r.ctx, redisEnvironmentFilesKey+env, filename).Err(); err != nil {
		return "", fmt.Errorf("failed to index definitions %s under %s: %w", filename, env, err)
	}
	return "redis:" + key, nil
}

func (r *RedisDefinitionStore) Load(env, filename string) (json.RawMessage, error) {
	data, err := r.rdb.Get(r.ctx, definitionKey(env, filename)).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("no definitions %s saved for %s", filename, env)
	} else if err != nil {
		return nil, fmt.Errorf("failed to read definitions %s for %s: %w", filename, env, err)
	}
	return data, nil
}

// Filenames lists every filename saved under env
func (r *RedisDefinitionStore) Filenames(env string) ([]string, error) {
	names, err := r.rdb.SMembers(r.ctx, redisEnvironmentFilesKey+env).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list definitions for %s: %w", env, err)
	}
	return names, nil
}
