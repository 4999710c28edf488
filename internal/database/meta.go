package database

import (
	"database/sql"
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

const (
	metaWatermark    = "watermark"
	metaDeviceID     = "device_id"
	metaSessionUser  = "session_user"
	metaSessionToken = "session_token"
)

func (db *DB) getMeta(key string) (string, error) {
	var value string
	err := db.conn.QueryRow("SELECT value FROM meta WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read meta %s: %w", key, err)
	}
	return value, nil
}

func (db *DB) setMeta(key, value string) error {
	_, err := db.conn.Exec(`
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to write meta %s: %w", key, err)
	}
	return nil
}

func (db *DB) deleteMeta(key string) error {
	_, err := db.conn.Exec("DELETE FROM meta WHERE key = ?", key)
	if err != nil {
		return fmt.Errorf("failed to delete meta %s: %w", key, err)
	}
	return nil
}

// Watermark returns the last successfully pulled server cursor, or 0
// when no pull has completed yet
func (db *DB) Watermark() (int64, error) {
	v, err := db.getMeta(metaWatermark)
	if err != nil || v == "" {
		return 0, err
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse watermark %q: %w", v, err)
	}
	return n, nil
}

// SetWatermark records the server cursor after a fully successful pull
func (db *DB) SetWatermark(w int64) error {
	return db.setMeta(metaWatermark, strconv.FormatInt(w, 10))
}

// DeviceID returns the persistent identifier for this installation,
// generating it on first use
func (db *DB) DeviceID() (string, error) {
	id, err := db.getMeta(metaDeviceID)
	if err != nil {
		return "", err
	}
	if id == "" {
		id = uuid.NewString()
		if err := db.setMeta(metaDeviceID, id); err != nil {
			return "", err
		}
	}
	return id, nil
}

// Session returns the signed-in user id and token. A zero user id
// means the device is running under the local anonymous identity and
// has nothing to sync.
func (db *DB) Session() (int64, string, error) {
	u, err := db.getMeta(metaSessionUser)
	if err != nil || u == "" {
		return 0, "", err
	}
	userID, err := strconv.ParseInt(u, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("failed to parse session user %q: %w", u, err)
	}
	token, err := db.getMeta(metaSessionToken)
	if err != nil {
		return 0, "", err
	}
	return userID, token, nil
}

// SetSession stores the signed-in user and token
func (db *DB) SetSession(userID int64, token string) error {
	if err := db.setMeta(metaSessionUser, strconv.FormatInt(userID, 10)); err != nil {
		return err
	}
	return db.setMeta(metaSessionToken, token)
}

// ClearSession signs the device out and drops the watermark, which is
// meaningless across accounts
func (db *DB) ClearSession() error {
	if err := db.deleteMeta(metaSessionUser); err != nil {
		return err
	}
	if err := db.deleteMeta(metaSessionToken); err != nil {
		return err
	}
	return db.deleteMeta(metaWatermark)
}
