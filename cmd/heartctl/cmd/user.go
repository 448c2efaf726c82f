package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"github.com/cenk2025/hardpath/internal/api/auth"
	"github.com/cenk2025/hardpath/internal/models"
	"github.com/cenk2025/hardpath/internal/storage"
)

var (
	userEmail    string
	userFullName string
	userRole     string
)

// userCmd represents the user command group
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "User management commands",
	Long: `Commands for managing HeartPath accounts.

These commands operate directly on the database file. They are the only
way to create care-team accounts, since public registration is limited
to patients and clinicians.

Examples:
  # List all users
  heartctl user list

  # Create an administrator
  heartctl user create --email ops@example.com --name "Ops" --role admin

  # Change a user's password
  heartctl user passwd --email ops@example.com

  # Promote a user to clinician
  heartctl user role --email dr@example.com --role clinician`,
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all users",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openDatabase(dbPath)
		if err != nil {
			return err
		}
		defer store.Close()

		userList, err := store.Users().List(context.Background())
		if err != nil {
			return fmt.Errorf("list users: %w", err)
		}
		if GetOutput() == "json" {
			return printJSON(userList)
		}
		if len(userList) == 0 {
			fmt.Println("No users found.")
			return nil
		}

		fmt.Printf("\n%-36s  %-30s  %-24s  %-10s  %s\n",
			"ID", "EMAIL", "NAME", "ROLE", "CREATED")
		fmt.Println(strings.Repeat("-", 120))
		for _, u := range userList {
			fmt.Printf("%-36s  %-30s  %-24s  %-10s  %s\n",
				u.ID,
				u.Email,
				truncate(u.FullName, 24),
				u.Role,
				u.CreatedAt.Format("2006-01-02 15:04:05"),
			)
		}
		fmt.Printf("\nTotal: %d user(s)\n", len(userList))
		return nil
	},
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new user",
	Long: `Create a new user in the database.

The password is prompted interactively so it stays out of shell history.
It needs at least 10 characters with a letter and a digit, and may not
contain the local part of the email address.

Example:
  heartctl user create --email dr@example.com --name "Dr. Aydin" --role clinician`,
	RunE: func(cmd *cobra.Command, args []string) error {
		email := auth.NormalizeEmail(userEmail)
		if err := auth.ValidateEmail(email); err != nil {
			return fmt.Errorf("invalid email: %w", err)
		}
		name := strings.TrimSpace(userFullName)
		if err := auth.ValidateFullName(name); err != nil {
			return fmt.Errorf("invalid name: %w", err)
		}
		role, err := parseRoleFlag(userRole)
		if err != nil {
			return err
		}

		password, err := promptNewPassword(email, "Enter password: ", "Confirm password: ")
		if err != nil {
			return err
		}

		store, err := openDatabase(dbPath)
		if err != nil {
			return err
		}
		defer store.Close()

		user, err := createUser(context.Background(), store, email, name, role, password)
		if err != nil {
			return err
		}

		fmt.Printf("\nUser created successfully:\n")
		fmt.Printf("  ID:    %s\n", user.ID)
		fmt.Printf("  Email: %s\n", user.Email)
		fmt.Printf("  Name:  %s\n", user.FullName)
		fmt.Printf("  Role:  %s\n", user.Role)
		return nil
	},
}

var userPasswdCmd = &cobra.Command{
	Use:   "passwd",
	Short: "Change a user's password",
	Long: `Change the password for an existing user and revoke their sessions.

Example:
  heartctl user passwd --email ops@example.com`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openDatabase(dbPath)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := context.Background()
		user, err := findUser(ctx, store, userEmail)
		if err != nil {
			return err
		}

		password, err := promptNewPassword(user.Email, "Enter new password: ", "Confirm new password: ")
		if err != nil {
			return err
		}
		if err := setPassword(ctx, store, user, password); err != nil {
			return err
		}

		fmt.Printf("\nPassword changed successfully for %s.\n", user.Email)
		fmt.Println("All existing sessions have been revoked.")
		return nil
	},
}

var userRoleCmd = &cobra.Command{
	Use:   "role",
	Short: "Change a user's role",
	Long: `Change the role of an existing user. The last administrator cannot
be demoted.

Example:
  heartctl user role --email dr@example.com --role clinician`,
	RunE: func(cmd *cobra.Command, args []string) error {
		role, err := parseRoleFlag(userRole)
		if err != nil {
			return err
		}

		store, err := openDatabase(dbPath)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := context.Background()
		user, err := findUser(ctx, store, userEmail)
		if err != nil {
			return err
		}
		if err := changeRole(ctx, store, user, role); err != nil {
			return err
		}

		fmt.Printf("Role of %s set to %s.\n", user.Email, user.Role)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userListCmd, userCreateCmd, userPasswdCmd, userRoleCmd)

	userCreateCmd.Flags().StringVar(&userEmail, "email", "", "email for the new user (required)")
	userCreateCmd.Flags().StringVar(&userFullName, "name", "", "full name for the new user (required)")
	userCreateCmd.Flags().StringVar(&userRole, "role", "patient", "role: admin, clinician, or patient")
	userCreateCmd.MarkFlagRequired("email")
	userCreateCmd.MarkFlagRequired("name")

	userPasswdCmd.Flags().StringVar(&userEmail, "email", "", "email of the user to update (required)")
	userPasswdCmd.MarkFlagRequired("email")

	userRoleCmd.Flags().StringVar(&userEmail, "email", "", "email of the user to update (required)")
	userRoleCmd.Flags().StringVar(&userRole, "role", "", "new role: admin, clinician, or patient (required)")
	userRoleCmd.MarkFlagRequired("email")
	userRoleCmd.MarkFlagRequired("role")
}

// parseRoleFlag accepts exactly the three stored role names.
func parseRoleFlag(s string) (models.Role, error) {
	switch r := models.Role(strings.ToLower(strings.TrimSpace(s))); r {
	case models.RoleAdmin, models.RoleClinician, models.RolePatient:
		return r, nil
	}
	return "", fmt.Errorf("invalid role %q: must be admin, clinician, or patient", s)
}

func findUser(ctx context.Context, store storage.Storage, email string) (*models.User, error) {
	user, err := store.Users().GetByEmail(ctx, auth.NormalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user '%s' not found", email)
	}
	return user, nil
}

func createUser(ctx context.Context, store storage.Storage, email, name string, role models.Role, password string) (*models.User, error) {
	existing, err := store.Users().GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("email '%s' already exists", email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := models.NewUser(email, name, role)
	user.ID = uuid.New().String()
	user.PasswordHash = string(hash)
	// Operator-created accounts skip patient onboarding.
	user.OnboardingCompleted = role != models.RolePatient

	if err := store.Users().Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func setPassword(ctx context.Context, store storage.Storage, user *models.User, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = string(hash)
	user.UpdatedAt = time.Now().UTC()
	if err := store.Users().Update(ctx, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	// Force re-login everywhere.
	if err := store.Tokens().RevokeAllForUser(ctx, user.ID); err != nil {
		PrintVerbose("Warning: could not revoke existing sessions: %v", err)
	}
	return nil
}

func changeRole(ctx context.Context, store storage.Storage, user *models.User, role models.Role) error {
	if user.Role == role {
		return nil
	}
	if user.Role == models.RoleAdmin {
		admins, err := store.Users().ListByRole(ctx, models.RoleAdmin)
		if err != nil {
			return fmt.Errorf("count admins: %w", err)
		}
		if len(admins) <= 1 {
			return fmt.Errorf("cannot demote the last administrator")
		}
	}
	user.Role = role
	user.UpdatedAt = time.Now().UTC()
	if err := store.Users().Update(ctx, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

// promptNewPassword reads and confirms a password that satisfies the policy.
func promptNewPassword(email, prompt, confirm string) (string, error) {
	password, err := promptPassword(prompt)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if err := auth.ValidatePassword(password, email); err != nil {
		return "", fmt.Errorf("invalid password: %w", err)
	}
	confirmPassword, err := promptPassword(confirm)
	if err != nil {
		return "", fmt.Errorf("read password confirmation: %w", err)
	}
	if password != confirmPassword {
		return "", fmt.Errorf("passwords do not match")
	}
	return password, nil
}

// promptPassword prompts for a password without echoing to the terminal.
func promptPassword(prompt string) (string, error) {
	fmt.Print(prompt)

	fd := syscall.Stdin
	if term.IsTerminal(fd) {
		passwordBytes, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", err
		}
		return string(passwordBytes), nil
	}

	// Piped input
	reader := bufio.NewReader(os.Stdin)
	password, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(password), nil
}

func truncate(s string, max int) string {
	if len([]rune(s)) <= max {
		return s
	}
	return string([]rune(s)[:max-1]) + "…"
}
