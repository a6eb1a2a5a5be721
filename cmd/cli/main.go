package main

import (
	"fmt"
	"os"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"

	"launchpad/internal/database"
	"launchpad/pkg/utils"
)

const apiManagement = "management"

var (
	apiBaseURL string
	apiKey     string
)

type ResponseError struct {
	Message string `json:"message"`
}

var apiServiceBase = func() *resty.Client {
	return resty.New().
		SetBaseURL(apiBaseURL).
		SetHeader("Accept", "application/json").
		SetHeader("X-API-Key", apiKey).
		SetError(&ResponseError{}).
		OnAfterResponse(func(c *resty.Client, resp *resty.Response) error {
			if resp.StatusCode() >= 400 {
				return fmt.Errorf("%s", resp.Error().(*ResponseError).Message)
			}

			return nil
		})
}

var rootCmd = &cobra.Command{
	Use:   "launchpad",
	Short: "Launchpad account CLI",
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var userCreateCmd = &cobra.Command{
	Use:   "create <email>",
	Short: "Create a new user",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		email := args[0]
		password := utils.GenerateRandomString(12)

		staff, _ := cmd.Flags().GetBool("staff")
		superuser, _ := cmd.Flags().GetBool("superuser")

		resp, err := apiServiceBase().R().
			SetBody(map[string]any{
				"email":        email,
				"password":     password,
				"is_staff":     staff || superuser,
				"is_superuser": superuser,
			}).
			SetResult(&database.User{}).
			Post(apiManagement + "/user")

		if err != nil {
			fmt.Println("Error:", err)
			return
		}

		user := resp.Result().(*database.User)

		fmt.Println("User ID  :", user.ID)
		fmt.Println("Email    :", user.Email)
		if user.Username != nil {
			fmt.Println("Username :", *user.Username)
		}
		fmt.Println("Password :", password)
	},
}

var userCreateAuthKeyCmd = &cobra.Command{
	Use:   "auth-key <user_id>",
	Short: "Create a new auth key",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		userID := args[0]

		resp, err := apiServiceBase().R().
			SetResult(&database.AuthKey{}).
			Post(fmt.Sprintf("%s/user/%s/auth-key", apiManagement, userID))

		if err != nil {
			fmt.Println("Error:", err)
			return
		}

		authKey := resp.Result().(*database.AuthKey)

		fmt.Println("User ID :", authKey.UserID)
		fmt.Println("Key     :", authKey.Key)
	},
}

var userResetPasswordCmd = &cobra.Command{
	Use:   "reset-password <user_id>",
	Short: "Reset user password",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		userID := args[0]
		password := utils.GenerateRandomString(12)

		_, err := apiServiceBase().R().
			SetBody(map[string]string{
				"password": password,
			}).
			Post(fmt.Sprintf("%s/user/%s/reset-password", apiManagement, userID))

		if err != nil {
			fmt.Println("Error:", err)
			return
		}

		fmt.Println("User ID :", userID)
		fmt.Println("Password:", password)
	},
}

var userProfileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Get user profile",
	Run: func(cmd *cobra.Command, args []string) {
		resp, err := apiServiceBase().R().
			SetResult(&database.User{}).
			Get("/user/me")

		if err != nil {
			fmt.Println("Error:", err)
			return
		}

		user := resp.Result().(*database.User)

		fmt.Println("User ID :", user.ID)
		fmt.Println("Email   :", user.Email)
		fmt.Println("Name    :", user.Profile.FullName())
	},
}

func main() {
	userCreateCmd.Flags().Bool("staff", false, "create a staff user")
	userCreateCmd.Flags().Bool("superuser", false, "create a superuser")

	userCmd.AddCommand(userCreateCmd)
	userCmd.AddCommand(userCreateAuthKeyCmd)
	userCmd.AddCommand(userResetPasswordCmd)
	userCmd.AddCommand(userProfileCmd)
	rootCmd.AddCommand(userCmd)

	rootCmd.PersistentFlags().StringVarP(&apiBaseURL, "url", "u", "http://localhost:3000/api", "API base URL")
	rootCmd.PersistentFlags().StringVarP(&apiKey, "key", "k", "", "API key")
	rootCmd.MarkPersistentFlagRequired("key")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
