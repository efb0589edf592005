package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/go-while/go-guweb/internal/auth"
	"github.com/go-while/go-guweb/internal/config"
	"github.com/go-while/go-guweb/internal/database"
	"github.com/go-while/go-guweb/internal/models"
)

var appVersion = "-unset-"

func main() {
	config.AppVersion = appVersion
	log.Printf("go-guweb User Manager (version: %s)", config.AppVersion)
	var (
		configFile   = flag.String("config", "config.json", "JSON config file (optional)")
		envFile      = flag.String("env", ".env", "dotenv file (optional)")
		createUser   = flag.Bool("create", false, "Create a new user")
		listUsers    = flag.Bool("list", false, "List all users")
		verifyUser   = flag.Bool("verify", false, "Mark a user as verified")
		banUser      = flag.Bool("ban", false, "Ban a user")
		unbanUser    = flag.Bool("unban", false, "Unban a user")
		staffUser    = flag.Bool("staff", false, "Grant admin privileges to a user")
		silence      = flag.Duration("silence", 0, "Silence a user for this long (e.g. 24h)")
		unsilence    = flag.Bool("unsilence", false, "Lift a user's silence")
		registration = flag.String("registration", "", "Turn registration on or off")
		username     = flag.String("username", "", "Username for user operations")
		email        = flag.String("email", "", "Email for user creation")
		verified     = flag.Bool("verified", false, "use with -create: create the account verified")
	)
	flag.Parse()

	if !*createUser && !*listUsers && !*verifyUser && !*banUser && !*unbanUser && !*staffUser && *silence == 0 && !*unsilence && *registration == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -create -username john -email john@example.com -verified\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -list\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -ban -username john\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -silence 24h -username john\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -registration off\n", os.Args[0])
		os.Exit(1)
	}

	mainConfig := config.NewDefaultConfig()
	if err := mainConfig.LoadFile(*configFile); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	config.LoadDotEnv(*envFile)
	mainConfig.ApplyEnv()

	ctx := context.Background()
	db, err := database.OpenDatabase(ctx, mainConfig.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	switch {
	case *createUser:
		if *username == "" || *email == "" {
			log.Fatal("Username and email are required for user creation")
		}
		err = createNewUser(ctx, db, mainConfig, *username, *email, *verified)
	case *listUsers:
		err = listAllUsers(ctx, db)
	case *registration != "":
		err = setRegistration(ctx, db, *registration)
	default:
		if *username == "" {
			log.Fatal("Username is required for this operation")
		}
		switch {
		case *verifyUser:
			err = changePrivileges(ctx, db, *username, models.Verified, 0)
		case *banUser:
			err = changePrivileges(ctx, db, *username, 0, models.Normal)
		case *unbanUser:
			err = changePrivileges(ctx, db, *username, models.Normal, 0)
		case *staffUser:
			err = changePrivileges(ctx, db, *username, models.Admin, 0)
		case *unsilence:
			err = silenceUser(ctx, db, *username, 0)
		case *silence > 0:
			err = silenceUser(ctx, db, *username, *silence)
		}
	}
	if err != nil {
		log.Fatalf("Failed: %v", err)
	}
}

func readPassword() (string, error) {
	fmt.Print("Enter password: ")
	password, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", fmt.Errorf("failed to read password: %v", err)
	}
	fmt.Println()

	fmt.Print("Confirm password: ")
	confirmPassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", fmt.Errorf("failed to read password confirmation: %v", err)
	}
	fmt.Println()

	if string(password) != string(confirmPassword) {
		return "", fmt.Errorf("passwords do not match")
	}
	return string(password), nil
}

func createNewUser(ctx context.Context, db *database.Database, cfg *config.MainConfig, username, email string, verified bool) error {
	password, err := readPassword()
	if err != nil {
		return err
	}

	svc := auth.NewService(auth.Options{
		Store:               db,
		DisallowedNames:     cfg.DisallowedNames,
		DisallowedPasswords: cfg.DisallowedPasswords,
		BcryptCost:          cfg.BcryptCost,
	})
	priv := models.Normal
	if verified {
		priv |= models.Verified
	}
	user, err := svc.CreateAccount(ctx, auth.RegisterRequest{Username: username, Email: email, Password: password}, priv)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	svc.Wait()

	fmt.Printf("✅ User '%s' created successfully (id %d)\n", user.Name, user.ID)
	return nil
}

func listAllUsers(ctx context.Context, db *database.Database) error {
	users, err := db.ListUsers(ctx, 1000, 0)
	if err != nil {
		return fmt.Errorf("failed to get users: %v", err)
	}
	if len(users) == 0 {
		fmt.Println("No users found")
		return nil
	}

	fmt.Printf("Found %d users:\n\n", len(users))
	fmt.Printf("%-6s %-16s %-30s %-8s %-8s %-8s %s\n", "ID", "Name", "Email", "Country", "Priv", "Status", "Created")
	fmt.Println(strings.Repeat("-", 100))
	for _, u := range users {
		fmt.Printf("%-6d %-16s %-30s %-8s %-8d %-8s %s\n",
			u.ID, u.Name, u.Email, u.Country, u.Priv, status(u),
			time.Unix(u.CreationTime, 0).Format("2006-01-02 15:04"))
	}
	return nil
}

func status(u *models.User) string {
	switch {
	case u.ID == models.BotUserID:
		return "bot"
	case !u.Priv.Has(models.Normal):
		return "banned"
	case !u.Priv.Has(models.Verified):
		return "pending"
	case u.Priv.Has(models.Staff):
		return "staff"
	}
	return "active"
}

func lookup(ctx context.Context, db *database.Database, username string) (*models.User, error) {
	user, err := db.GetUserBySafeName(ctx, models.SafeName(username))
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %v", err)
	}
	if user == nil || user.ID == models.BotUserID {
		return nil, fmt.Errorf("user '%s' not found", username)
	}
	return user, nil
}

// changePrivileges sets the add bits and clears the remove bits
func changePrivileges(ctx context.Context, db *database.Database, username string, add, remove models.Privileges) error {
	user, err := lookup(ctx, db, username)
	if err != nil {
		return err
	}
	priv := (user.Priv | add) &^ remove
	if err := db.UpdatePrivileges(ctx, user.ID, priv); err != nil {
		return fmt.Errorf("failed to update privileges: %v", err)
	}
	fmt.Printf("✅ '%s' privileges %d -> %d\n", user.Name, user.Priv, priv)
	return nil
}

func silenceUser(ctx context.Context, db *database.Database, username string, d time.Duration) error {
	user, err := lookup(ctx, db, username)
	if err != nil {
		return err
	}
	var end int64
	if d > 0 {
		end = time.Now().Add(d).Unix()
	}
	if err := db.SetSilenceEnd(ctx, user.ID, end); err != nil {
		return fmt.Errorf("failed to silence user: %v", err)
	}
	if end == 0 {
		fmt.Printf("✅ '%s' is no longer silenced\n", user.Name)
	} else {
		fmt.Printf("✅ '%s' silenced until %s\n", user.Name, time.Unix(end, 0).Format(time.RFC3339))
	}
	return nil
}

func setRegistration(ctx context.Context, db *database.Database, value string) error {
	var enabled bool
	switch strings.ToLower(value) {
	case "on", "true", "1":
		enabled = true
	case "off", "false", "0":
	default:
		return fmt.Errorf("-registration must be on or off, got %q", value)
	}
	if err := db.SetConfigBool(ctx, database.ConfigRegistrationEnabled, enabled); err != nil {
		return fmt.Errorf("failed to update registration: %v", err)
	}
	fmt.Printf("✅ Registration enabled: %t\n", enabled)
	return nil
}
