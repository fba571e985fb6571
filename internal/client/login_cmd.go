package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nirmitsaini1024/tgrab/internal/api"
	"github.com/nirmitsaini1024/tgrab/internal/models"
)

func init() {
	rootCmd.AddCommand(loginCmd)
	loginCmd.Flags().String("phone", "", "Phone number in international format")
	loginCmd.Flags().Int("api-id", 0, "Application api_id")
	loginCmd.Flags().String("api-hash", "", "Application api_hash")
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate with the server",
	Run: func(cmd *cobra.Command, args []string) {
		phone, _ := cmd.Flags().GetString("phone")
		apiID, _ := cmd.Flags().GetInt("api-id")
		apiHash, _ := cmd.Flags().GetString("api-hash")

		if err := Login(cmd.InOrStdin(), phone, apiID, apiHash); err != nil {
			fmt.Println("Login failed:", err)
			return
		}
		fmt.Println("Logged in successfully!")
	},
}

// Login runs the phone -> code -> password flow interactively, reading
// the code and password from in, and stores the resulting token.
func Login(in io.Reader, phone string, apiID int, apiHash string) error {
	if phone == "" {
		phone = cfg.Phone
	}
	if apiID == 0 {
		apiID = cfg.APIID
	}
	if apiHash == "" {
		apiHash = cfg.APIHash
	}
	if phone == "" {
		return fmt.Errorf("phone number required (use --phone)")
	}

	mgr := api.NewSessionManager(apiClient())
	ctx := rootCmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	res, err := mgr.RequestCode(ctx, api.Credentials{APIID: apiID, APIHash: apiHash}, phone)
	if err != nil {
		return err
	}

	// Remember working credentials for the next login.
	cfg.Phone = phone
	cfg.APIID = apiID
	cfg.APIHash = apiHash

	if res.AlreadyAuthorized {
		fmt.Println("Already authorized, no code needed.")
		cfg.Token = res.Token
		return SaveConfigGlobal()
	}

	reader := bufio.NewReader(in)
	fmt.Print("Enter the code you received: ")
	code, err := readLine(reader)
	if err != nil {
		return err
	}

	outcome, err := mgr.SubmitCode(ctx, res.SessionID, code)
	if err != nil {
		return err
	}

	if outcome.SecondFactorRequired {
		fmt.Print("Two-step verification enabled. Enter your password: ")
		password, err := readLine(reader)
		if err != nil {
			return err
		}
		outcome, err = mgr.SubmitPassword(ctx, res.SessionID, password)
		if err != nil {
			return err
		}
	}

	auth := outcome.Authorization
	cfg.Token = auth.Token
	cfg.User = auth.User
	if auth.User.Username != "" {
		fmt.Printf("Welcome, @%s!\n", auth.User.Username)
	}
	return SaveConfigGlobal()
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Discard the stored access token",
	Run: func(cmd *cobra.Command, args []string) {
		if cfg.Token == "" {
			fmt.Println("Not logged in.")
			return
		}
		cfg.Token = ""
		cfg.User = models.Identity{}
		if err := SaveConfigGlobal(); err != nil {
			fmt.Println("Error saving config:", err)
			return
		}
		fmt.Println("Logged out.")
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the identity of the stored token",
	Run: func(cmd *cobra.Command, args []string) {
		if cfg.Token == "" {
			fmt.Println("Not logged in.")
			return
		}
		u := cfg.User
		name := strings.TrimSpace(u.FirstName + " " + u.LastName)
		if name == "" {
			name = u.Username
		}
		fmt.Printf("%s (@%s) id=%d phone=%s\n", name, u.Username, u.ID, u.Phone)
	},
}
