// seed-users creates or updates a login user.
//
// Usage:
//
//	DB_DRIVER=postgres DB_HOST=... DB_USER=... DB_PASSWORD=... DB_NAME=... \
//	  go run ./cmd/seed-users --username=jefe --name="Jefe de Bodega" --password=secret1 --role=supervisor
//
// Run with --migrate on a fresh database to create the tables first.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/FDXFinanzas1/inventario-ciego/config"
	"github.com/FDXFinanzas1/inventario-ciego/models"
)

func main() {
	username := flag.String("username", "", "Required: login name")
	name := flag.String("name", "", "Display name (defaults to username)")
	password := flag.String("password", os.Getenv("SEED_USER_PASSWORD"), "Password, at least 6 characters (or SEED_USER_PASSWORD)")
	role := flag.String("role", string(models.UserRoleEmployee), "supervisor or empleado")
	inactive := flag.Bool("inactive", false, "Create or leave the user disabled")
	migrate := flag.Bool("migrate", false, "Run AutoMigrate before seeding")
	flag.Parse()

	if strings.TrimSpace(*username) == "" {
		fmt.Fprintln(os.Stderr, "--username is required")
		os.Exit(1)
	}
	if strings.TrimSpace(*name) == "" {
		*name = *username
	}

	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	config.ConnectRedisWithRetry()
	if *migrate {
		models.MigrateTable()
	}

	active := !*inactive
	user, created, err := models.SaveUser(context.Background(), &models.NewUser{
		Username: *username,
		Name:     *name,
		Password: *password,
		Role:     models.UserRole(strings.ToLower(strings.TrimSpace(*role))),
		IsActive: &active,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to save user: %v\n", err)
		os.Exit(1)
	}

	verb := "Updated"
	if created {
		verb = "Created"
	}
	fmt.Printf("%s user: username=%q role=%s active=%t\n", verb, user.Username, user.Role, active)
}
