// Callograph - Call Log Ingestion and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callograph

package ingest

import (
	"context"
	"errors"

	"github.com/tomtom215/callograph/internal/models"
	"github.com/tomtom215/callograph/internal/store"
)

// errDuplicateHash mimics DuckDB's unique-violation message so the
// persister's classification path is exercised for real.
var errDuplicateHash = errors.New(`Duplicate key "log_hash" violates unique constraint`)

type statusUpsert struct {
	userID   int64
	username string
	count    int
}

// fakeStore is an in-memory Store with per-method error injection and call
// counting.
type fakeStore struct {
	users      map[string]*models.User
	hashes     map[string]map[string]struct{}
	syncStatus map[string]*models.SyncStatus

	inserted      []*models.CallLog
	upserted      []*models.CallLog
	statusUpserts []statusUpsert

	hashCalls int
	listCalls int

	userErr         error
	listErr         error
	hashErr         error
	statusErr       error
	statusUpsertErr error
	insertErr       func(*models.CallLog) error
	upsertErr       func(*models.CallLog) error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:      make(map[string]*models.User),
		hashes:     make(map[string]map[string]struct{}),
		syncStatus: make(map[string]*models.SyncStatus),
	}
}

func (f *fakeStore) addUser(id int64, username string) *models.User {
	user := &models.User{ID: id, Username: username}
	f.users[username] = user
	return user
}

func (f *fakeStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	if f.userErr != nil {
		return nil, f.userErr
	}
	user, ok := f.users[username]
	if !ok {
		return nil, store.ErrNotFound
	}
	return user, nil
}

func (f *fakeStore) ListUsersWithUsername(context.Context) ([]models.User, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	var users []models.User
	for _, u := range f.users {
		users = append(users, *u)
	}
	return users, nil
}

func (f *fakeStore) GetLogHashesByUser(_ context.Context, username string) (map[string]struct{}, error) {
	f.hashCalls++
	if f.hashErr != nil {
		return nil, f.hashErr
	}
	out := make(map[string]struct{})
	for h := range f.hashes[username] {
		out[h] = struct{}{}
	}
	return out, nil
}

func (f *fakeStore) InsertCallLog(_ context.Context, entry *models.CallLog) error {
	if f.insertErr != nil {
		if err := f.insertErr(entry); err != nil {
			return err
		}
	}
	f.inserted = append(f.inserted, entry)
	return nil
}

func (f *fakeStore) UpsertCallLogByHash(_ context.Context, entry *models.CallLog) error {
	if f.upsertErr != nil {
		if err := f.upsertErr(entry); err != nil {
			return err
		}
	}
	f.upserted = append(f.upserted, entry)
	return nil
}

func (f *fakeStore) GetSyncStatus(_ context.Context, username string) (*models.SyncStatus, error) {
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	status, ok := f.syncStatus[username]
	if !ok {
		return nil, store.ErrNotFound
	}
	return status, nil
}

func (f *fakeStore) UpsertSyncStatus(_ context.Context, userID int64, username string, totalLogCount int) error {
	if f.statusUpsertErr != nil {
		return f.statusUpsertErr
	}
	f.statusUpserts = append(f.statusUpserts, statusUpsert{userID: userID, username: username, count: totalLogCount})
	f.syncStatus[username] = &models.SyncStatus{UserID: userID, Username: username, TotalLogCount: totalLogCount}
	return nil
}

// fakeFetcher returns canned entries per username.
type fakeFetcher struct {
	logs map[string][]models.CallLogEntry
}

func (f *fakeFetcher) FetchUserLogs(_ context.Context, username string) []models.CallLogEntry {
	return f.logs[username]
}
