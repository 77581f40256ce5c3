package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"bitbucket.org/mmdatafocus/pos_backend/config"
	"bitbucket.org/mmdatafocus/pos_backend/models"
	"github.com/bsm/redislock"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Recomputes every box balance from the transaction log and reports drift
// against the stored balance columns. The log is the source of truth; a
// mismatch means a bug or manual tampering, never a ledger correction.
func main() {
	fix := flag.Bool("fix", false, "Rewrite stored balances from the recomputed values")
	flag.Parse()

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
		os.Exit(1)
	}

	ctx := context.Background()

	// One recheck at a time across the fleet. Redis being down only means we
	// lose that guard, so a missing client is not fatal.
	config.ConnectRedisWithRetry()
	if locker := config.GetRedisLock(); locker != nil {
		lock, err := locker.Obtain(ctx, "ledger-recheck", 10*time.Minute, nil)
		if err == redislock.ErrNotObtained {
			fmt.Fprintln(os.Stderr, "another recheck is already running")
			os.Exit(1)
		}
		if err == nil {
			defer lock.Release(ctx)
		}
	}

	mismatches := 0
	mismatches += recheckMoneyBoxes(ctx, db, *fix)
	mismatches += recheckCashBoxes(ctx, db, *fix)
	mismatches += recheckTransactionChains(ctx, db)

	if mismatches > 0 {
		fmt.Printf("found %d mismatch(es)\n", mismatches)
		os.Exit(2)
	}
	fmt.Println("ledger is consistent")
}

func signedSum(ctx context.Context, db *gorm.DB, kind models.BoxKind, boxId int) (decimal.Decimal, error) {
	var transactions []*models.BoxTransaction
	err := db.WithContext(ctx).
		Where("box_kind = ? AND box_id = ?", kind, boxId).
		Order("id").
		Find(&transactions).Error
	if err != nil {
		return decimal.Zero, err
	}
	sum := decimal.Zero
	for _, t := range transactions {
		sum = sum.Add(t.Amount.Mul(decimal.NewFromInt(int64(t.Type.Sign()))))
	}
	return sum, nil
}

func recheckMoneyBoxes(ctx context.Context, db *gorm.DB, fix bool) int {
	var boxes []*models.MoneyBox
	if err := db.WithContext(ctx).Find(&boxes).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to list money boxes: %v\n", err)
		os.Exit(1)
	}

	mismatches := 0
	for _, box := range boxes {
		sum, err := signedSum(ctx, db, models.BoxKindMoney, box.ID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "money box %d: %v\n", box.ID, err)
			os.Exit(1)
		}
		expected := box.InitialBalance.Add(sum)
		if expected.Equal(box.CurrentBalance) {
			continue
		}
		mismatches++
		fmt.Printf("money box %d (%s): stored %s, recomputed %s\n",
			box.ID, box.Name, box.CurrentBalance.String(), expected.String())
		if fix {
			err := db.WithContext(ctx).Model(&models.MoneyBox{}).
				Where("id = ?", box.ID).
				Update("current_balance", expected).Error
			if err != nil {
				fmt.Fprintf(os.Stderr, "money box %d: fix failed: %v\n", box.ID, err)
				os.Exit(1)
			}
			fmt.Printf("money box %d: balance rewritten\n", box.ID)
		}
	}
	return mismatches
}

func recheckCashBoxes(ctx context.Context, db *gorm.DB, fix bool) int {
	var boxes []*models.CashBox
	if err := db.WithContext(ctx).Find(&boxes).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to list cash boxes: %v\n", err)
		os.Exit(1)
	}

	mismatches := 0
	for _, box := range boxes {
		// The opening float enters through an Opening row, so the signed sum
		// alone is the whole session balance. Closed sessions must sum to 0.
		sum, err := signedSum(ctx, db, models.BoxKindCash, box.ID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "cash box %d: %v\n", box.ID, err)
			os.Exit(1)
		}
		if sum.Equal(box.CurrentAmount) {
			continue
		}
		mismatches++
		fmt.Printf("cash box %d (owner %d, %s): stored %s, recomputed %s\n",
			box.ID, box.OwnerId, box.Status, box.CurrentAmount.String(), sum.String())
		if fix {
			err := db.WithContext(ctx).Model(&models.CashBox{}).
				Where("id = ?", box.ID).
				Update("current_amount", sum).Error
			if err != nil {
				fmt.Fprintf(os.Stderr, "cash box %d: fix failed: %v\n", box.ID, err)
				os.Exit(1)
			}
			fmt.Printf("cash box %d: balance rewritten\n", box.ID)
		}
	}
	return mismatches
}

// recheckTransactionChains verifies the running balance on every row: each
// balance_after must equal balance_before plus the signed amount, and each
// row's balance_before must continue its predecessor's balance_after.
func recheckTransactionChains(ctx context.Context, db *gorm.DB) int {
	var transactions []*models.BoxTransaction
	err := db.WithContext(ctx).
		Order("box_kind, box_id, id").
		Find(&transactions).Error
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to list transactions: %v\n", err)
		os.Exit(1)
	}

	mismatches := 0
	type boxKey struct {
		kind  models.BoxKind
		boxId int
	}
	previous := map[boxKey]decimal.Decimal{}
	for _, t := range transactions {
		key := boxKey{t.BoxKind, t.BoxId}
		step := t.Amount.Mul(decimal.NewFromInt(int64(t.Type.Sign())))
		if !t.BalanceBefore.Add(step).Equal(t.BalanceAfter) {
			mismatches++
			fmt.Printf("transaction %d: balance_after %s does not follow from %s %s %s\n",
				t.ID, t.BalanceAfter.String(), t.BalanceBefore.String(), t.Type, t.Amount.String())
		}
		if last, ok := previous[key]; ok && !last.Equal(t.BalanceBefore) {
			mismatches++
			fmt.Printf("transaction %d: balance_before %s breaks the chain (previous balance_after %s)\n",
				t.ID, t.BalanceBefore.String(), last.String())
		}
		previous[key] = t.BalanceAfter
	}
	return mismatches
}
