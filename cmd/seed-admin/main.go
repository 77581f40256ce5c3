package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"bitbucket.org/mmdatafocus/pos_backend/config"
	"bitbucket.org/mmdatafocus/pos_backend/models"
	"bitbucket.org/mmdatafocus/pos_backend/utils"
)

// Seeds the first admin account and the default money box on a fresh
// database. Safe to re-run; existing rows are left alone.
func main() {
	username := flag.String("username", "admin", "Admin username")
	name := flag.String("name", "Administrator", "Admin display name")
	password := flag.String("password", "", "Admin password (required)")
	safeName := flag.String("safe-name", "Main Safe", "Name of the default money box")
	flag.Parse()

	if strings.TrimSpace(*password) == "" {
		fmt.Fprintln(os.Stderr, "-password is required")
		os.Exit(1)
	}

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
		os.Exit(1)
	}
	models.MigrateTable()

	ctx := utils.SetUserNameInContext(context.Background(), "SeedAdmin")

	var userCount int64
	if err := db.WithContext(ctx).Model(&models.User{}).
		Where("username = ?", *username).Count(&userCount).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to check users: %v\n", err)
		os.Exit(1)
	}
	if userCount > 0 {
		fmt.Printf("user %q already exists; skipping\n", *username)
	} else {
		user, err := models.CreateUser(ctx, &models.NewUser{
			Username: *username,
			Name:     *name,
			Password: *password,
			Role:     models.UserRoleAdmin,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create admin: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("created admin user %q (id %d)\n", user.Username, user.ID)
	}

	var boxCount int64
	if err := db.WithContext(ctx).Model(&models.MoneyBox{}).
		Where("name = ?", *safeName).Count(&boxCount).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to check money boxes: %v\n", err)
		os.Exit(1)
	}
	if boxCount > 0 {
		fmt.Printf("money box %q already exists; skipping\n", *safeName)
		return
	}
	box, err := models.CreateMoneyBox(ctx, &models.NewMoneyBox{
		Name:        *safeName,
		Description: "Default company safe",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create money box: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("created money box %q (id %d)\n", box.Name, box.ID)
}
