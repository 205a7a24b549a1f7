// Package config loads the engine's runtime options: page payload
// size, buffer pool capacity, and the directory holding its page
// files. It is sugar over constructing storage.BufferPool directly —
// callers embedding the engine may skip it entirely.
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/mnohosten/blinkstore/pkg/storage"
)

// Options holds everything needed to stand up a BufferPool and locate
// page files on disk.
type Options struct {
	PageSize     int    `mapstructure:"page_size"`
	PoolCapacity int    `mapstructure:"pool_capacity"`
	DataDir      string `mapstructure:"data_dir"`
}

// defaults matches storage.DefaultPageDataSize and a modest pool.
func defaults() Options {
	return Options{
		PageSize:     storage.DefaultPageDataSize,
		PoolCapacity: 256,
		DataDir:      ".",
	}
}

// Load reads Options from a YAML file at path, falling back to
// defaults for any field YAML leaves unset.
func Load(path string) (Options, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	def := defaults()
	v.SetDefault("page_size", def.PageSize)
	v.SetDefault("pool_capacity", def.PoolCapacity)
	v.SetDefault("data_dir", def.DataDir)

	if err := v.ReadInConfig(); err != nil {
		return Options{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var opts Options
	if err := v.Unmarshal(&opts); err != nil {
		return Options{}, fmt.Errorf("config: unmarshal %s: %w", path, err)
	}
	return opts, nil
}

// NewBufferPool builds a storage.BufferPool sized per opts, applying
// defaults for any zero-valued field.
func (o Options) NewBufferPool() *storage.BufferPool {
	pageSize := o.PageSize
	if pageSize == 0 {
		pageSize = storage.DefaultPageDataSize
	}
	capacity := o.PoolCapacity
	if capacity == 0 {
		capacity = defaults().PoolCapacity
	}
	return storage.NewBufferPool(capacity, uint32(pageSize))
}

// PathIn joins name under the configured data directory, defaulting
// to the current directory when unset.
func (o Options) PathIn(name string) string {
	dir := o.DataDir
	if dir == "" {
		dir = "."
	}
	return dir + "/" + name
}
