package store

import "time"

type Owner struct {
	ID   int64
	Name string
}

type GroupRow struct {
	ID   int64
	Name string
}

type AccountRow struct {
	ID        int64
	Email     string
	Tags      []string
	Owner     *Owner
	Groups    []GroupRow
	Labels    map[string]struct{}
	CreatedAt *time.Time
	Secret    string
}
