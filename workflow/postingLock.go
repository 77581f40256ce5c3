package workflow

import (
	"fmt"

	"gorm.io/gorm"
)

// AcquireOwnerOpenLock serializes cash box opening per owner using MySQL
// advisory locks, so two concurrent opens cannot race past the
// check-then-insert.
// NOTE: GET_LOCK is connection-scoped, so this must be called on the same
// *gorm.DB transaction that performs the open.
func AcquireOwnerOpenLock(tx *gorm.DB, ownerId int) error {
	lockName := fmt.Sprintf("cashbox-open:%d", ownerId)
	var ok int
	if err := tx.Raw("SELECT GET_LOCK(?, 10)", lockName).Scan(&ok).Error; err != nil {
		return err
	}
	if ok != 1 {
		return fmt.Errorf("could not acquire open lock for owner_id=%d", ownerId)
	}
	return nil
}

func ReleaseOwnerOpenLock(tx *gorm.DB, ownerId int) {
	lockName := fmt.Sprintf("cashbox-open:%d", ownerId)
	var _ok int
	_ = tx.Raw("SELECT RELEASE_LOCK(?)", lockName).Scan(&_ok).Error
}
