package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"depot-backend/internal/auth"
	"depot-backend/internal/models"
	"depot-backend/internal/repositories"
	"depot-backend/internal/services"
)

var (
	adminEmail    string
	adminName     string
	adminPassword string
)

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an admin account",
	RunE:  runCreateAdmin,
}

func init() {
	rootCmd.AddCommand(createAdminCmd)
	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "Login email")
	createAdminCmd.Flags().StringVar(&adminName, "name", "Administrator", "Display name")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "Password (at least 8 characters)")
	createAdminCmd.MarkFlagRequired("email")
	createAdminCmd.MarkFlagRequired("password")
}

func runCreateAdmin(cmd *cobra.Command, args []string) error {
	if len(adminPassword) < auth.MinPasswordLength {
		return auth.ErrPasswordTooShort
	}

	cfg, pool, _, err := connect(cmd.Context())
	if err != nil {
		return err
	}
	defer pool.Close()

	users := services.NewUserService(repositories.NewUserRepository(pool), nil, auth.NewJWTManager(cfg), cfg.Business.Name)
	user, err := users.CreateUser(cmd.Context(), &models.CreateUserRequest{
		Name:     adminName,
		Email:    adminEmail,
		Password: adminPassword,
		Role:     models.RoleAdmin,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created admin #%d <%s>\n", user.ID, user.Email)
	return nil
}
