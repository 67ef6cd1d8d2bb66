// perkloop is the command-line front end for the perkloop loyalty platform.
//
// Usage:
//
//	perkloop register [flags]          Create an account (does not log in)
//	perkloop login [flags]             Log in and persist the session
//	perkloop logout                    Log out (locally effective even offline)
//	perkloop me                        Show the current session
//	perkloop refresh                   Refresh the token pair now
//	perkloop stats                     Seller dashboard aggregates
//	perkloop qr generate [flags]       Generate a QR code (sellers)
//	perkloop qr show [--watch]         Show the active QR, optionally auto-reloading
//	perkloop qr scan [flags]           Scan a code payload (customers)
//	perkloop points                    Per-seller balances (customers)
//	perkloop transactions              Points history (customers)
//	perkloop redeem new [flags]        Open a redemption
//	perkloop redeem list [--status]    List redemptions
//	perkloop redeem cancel <id>        Cancel a pending redemption
//	perkloop redeem watch <id>         Poll a redemption until it settles
//	perkloop subscribe [flags]         Open a subscription payment order
//	perkloop subscribe verify [flags]  Verify a completed payment
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/perkloop/perkloop-go/api"
	"github.com/perkloop/perkloop-go/internal/config"
	"github.com/perkloop/perkloop-go/poll"
	"github.com/perkloop/perkloop-go/session"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

type app struct {
	client *api.Client
	store  *session.Store
	log    zerolog.Logger
}

func main() {
	_ = godotenv.Load()

	level := zerolog.WarnLevel
	if os.Getenv("PERKLOOP_DEBUG") != "" {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	root := flag.NewFlagSet("perkloop", flag.ExitOnError)
	apiURL := root.String("api", "", "backend base URL (overrides config and env)")
	root.Usage = printUsage
	root.Parse(os.Args[1:])

	cfg, err := config.Load()
	if err != nil {
		fatal(err)
	}
	if *apiURL != "" {
		cfg.BaseURL = *apiURL
	}

	client := api.New(cfg.BaseURL, api.WithLogger(logger))
	store := session.NewStore(client, session.NewFileStorage(cfg.SessionPath), logger)
	client.Bind(store)
	if _, err := store.LoadUser(); err != nil {
		logger.Warn().Err(err).Msg("could not restore session")
	}

	a := &app{client: client, store: store, log: logger}

	args := root.Args()
	if len(args) == 0 || args[0] == "help" || args[0] == "--help" || args[0] == "-h" {
		printUsage()
		if len(args) == 0 {
			os.Exit(1)
		}
		return
	}

	cmd, rest := args[0], args[1:]
	ctx := context.Background()

	switch cmd {
	case "version", "--version", "-v":
		fmt.Printf("perkloop version %s\n", version)
	case "register":
		err = a.cmdRegister(ctx, rest)
	case "login":
		err = a.cmdLogin(ctx, rest)
	case "logout":
		err = a.store.Logout(ctx)
	case "me":
		err = a.cmdMe()
	case "refresh":
		err = a.store.RefreshToken(ctx)
	case "stats":
		err = a.cmdStats(ctx)
	case "qr":
		err = a.cmdQR(ctx, rest)
	case "points":
		err = a.cmdPoints(ctx)
	case "transactions":
		err = a.cmdTransactions(ctx)
	case "redeem":
		err = a.cmdRedeem(ctx, rest)
	case "subscribe":
		err = a.cmdSubscribe(ctx, rest)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fatal(err)
	}
}

// fatal prints the user-facing message for err and exits.
func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", api.UserMessage(err))
	os.Exit(1)
}

func printUsage() {
	fmt.Fprint(os.Stderr, `perkloop — loyalty rewards CLI

Commands:
  register, login, logout, me, refresh
  stats
  qr generate|show|scan
  points, transactions
  redeem new|list|cancel|watch
  subscribe [verify]

Run with PERKLOOP_DEBUG=1 for request logging.
`)
}

func (a *app) cmdRegister(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	name := fs.String("name", "", "display name")
	role := fs.String("role", "customer", "seller or customer")
	business := fs.String("business", "", "business name (sellers)")
	qrType := fs.String("qr-type", "static", "registered QR type (sellers)")
	phone := fs.String("phone", "", "phone number (customers)")
	fs.Parse(args)

	err := a.store.Register(ctx, api.RegisterPayload{
		Email:        *email,
		Password:     *password,
		Name:         *name,
		Role:         api.Role(*role),
		BusinessName: *business,
		QRCodeType:   api.QRType(*qrType),
		Phone:        *phone,
	})
	if err != nil {
		return err
	}
	fmt.Println("registered — log in with: perkloop login")
	return nil
}

func (a *app) cmdLogin(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	role := fs.String("role", "customer", "seller or customer")
	fs.Parse(args)

	sess, err := a.store.Login(ctx, *email, *password, api.Role(*role))
	if err != nil {
		return err
	}
	fmt.Printf("logged in as %s (%s)\n", sess.User.Name, sess.User.Role)
	return nil
}

func (a *app) cmdMe() error {
	sess := a.store.Current()
	if sess == nil {
		fmt.Println("not logged in")
		return nil
	}
	u := sess.User
	fmt.Printf("uid:    %s\nname:   %s\nemail:  %s\nrole:   %s\n", u.UID, u.Name, u.Email, u.Role)
	if u.Seller != nil {
		fmt.Printf("business: %s\ntier:     %s\nqr type:  %s\n",
			u.Seller.BusinessName, u.Seller.Tier, u.Seller.QRCodeType)
	}
	if exp, ok := sess.TokenExpiresAt(); ok {
		fmt.Printf("token expires: %s\n", exp.Format(time.RFC3339))
	}
	return nil
}

func (a *app) cmdStats(ctx context.Context) error {
	stats, err := a.client.SellerStats(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s\n", stats.SellerName)
	fmt.Printf("  customers: %d  codes: %d  scans: %d\n",
		stats.TotalUsers, stats.TotalQRs, stats.TotalScanned)
	fmt.Printf("  points issued: %d  redemptions: %d\n",
		stats.TotalPointsIssued, stats.TotalRedemptions)
	fmt.Printf("  today: %d scans, %d points, %d redemptions\n",
		stats.Today.Scans, stats.Today.PointsIssued, stats.Today.Redemptions)
	if len(stats.LastFiveScans) > 0 {
		fmt.Println("  recent scans:")
		for _, s := range stats.LastFiveScans {
			fmt.Printf("    %-20s %4d pts  %s\n", s.CustomerName, s.Points, s.ScannedAt.Format(time.Kitchen))
		}
	}
	return nil
}

func (a *app) cmdQR(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: perkloop qr generate|show|scan")
	}
	sub, rest := args[0], args[1:]
	switch sub {
	case "generate":
		return a.cmdQRGenerate(ctx, rest)
	case "show":
		return a.cmdQRShow(ctx, rest)
	case "scan":
		return a.cmdQRScan(ctx, rest)
	default:
		return fmt.Errorf("unknown qr subcommand: %s", sub)
	}
}

func (a *app) cmdQRGenerate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("qr generate", flag.ExitOnError)
	qrType := fs.String("type", "", "dynamic, static, or static_hidden (default: your registered type)")
	points := fs.Int("points", 0, "points value")
	expires := fs.Int("expires", 0, "expiry in minutes (dynamic)")
	hidden := fs.String("hidden", "", "hidden code (static_hidden)")
	fs.Parse(args)

	sess := a.store.Current()
	if sess == nil || sess.User.Seller == nil {
		return &api.AuthError{Message: "log in as a seller first"}
	}
	seller := sess.User.Seller

	want := api.QRType(*qrType)
	if want == "" {
		want = seller.QRCodeType
	}
	// Tier gate runs before any network call.
	if err := api.CheckQRTypeAllowed(seller.Tier, seller.QRCodeType, want); err != nil {
		return err
	}

	qr, err := a.client.GenerateQR(ctx, api.GenerateQRRequest{
		Type:             want,
		PointsValue:      *points,
		ExpiresInMinutes: *expires,
		HiddenCode:       *hidden,
	})
	if err != nil {
		return err
	}
	printQR(qr)
	return nil
}

func (a *app) cmdQRShow(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("qr show", flag.ExitOnError)
	watch := fs.Bool("watch", false, "keep the code fresh on an interval")
	interval := fs.Duration("interval", 30*time.Second, "reload interval with --watch")
	fs.Parse(args)

	if !*watch {
		qr, err := a.client.GetActiveQR(ctx)
		if err != nil {
			return err
		}
		if qr == nil {
			fmt.Println("no active QR code")
			return nil
		}
		printQR(qr)
		return nil
	}

	ctx, cancel := signalContext(ctx)
	defer cancel()
	a.watchConfig()

	refresher := poll.StartTokenRefresher(ctx, a.store, a.log)
	defer refresher.Stop()

	loader := poll.StartQRAutoLoader(ctx, a.client, *interval, func(qr *api.QRCode) {
		if qr == nil {
			fmt.Println("no active QR code")
			return
		}
		printQR(qr)
	}, a.log)
	defer loader.Stop()

	<-ctx.Done()
	return nil
}

func (a *app) cmdQRScan(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("qr scan", flag.ExitOnError)
	data := fs.String("data", "", "scanned code payload")
	hidden := fs.String("hidden", "", "hidden code, if the code requires one")
	fs.Parse(args)

	res, err := a.client.ScanQR(ctx, *data, *hidden)
	if err != nil {
		return err
	}
	fmt.Printf("earned %d points at %s (balance: %d)\n", res.PointsEarned, res.SellerName, res.TotalPoints)
	return nil
}

func (a *app) cmdPoints(ctx context.Context) error {
	balances, err := a.client.PointsBalances(ctx)
	if err != nil {
		return err
	}
	if len(balances) == 0 {
		fmt.Println("no points yet — scan a seller's QR code to start earning")
		return nil
	}
	for _, b := range balances {
		fmt.Printf("%-24s %6d pts\n", b.SellerName, b.Points)
	}
	return nil
}

func (a *app) cmdTransactions(ctx context.Context) error {
	txns, err := a.client.PointsTransactions(ctx)
	if err != nil {
		return err
	}
	if len(txns) == 0 {
		fmt.Println("no transactions yet")
		return nil
	}
	for _, t := range txns {
		fmt.Printf("%s  %-8s %5d  %s\n",
			t.Timestamp.Format("2006-01-02 15:04"), t.Type, t.Amount, t.SellerName)
	}
	return nil
}

func (a *app) cmdRedeem(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: perkloop redeem new|list|cancel|watch")
	}
	sub, rest := args[0], args[1:]
	switch sub {
	case "new":
		fs := flag.NewFlagSet("redeem new", flag.ExitOnError)
		seller := fs.String("seller", "", "seller ID")
		points := fs.Int("points", 0, "points to redeem")
		offer := fs.String("offer", "", "offer ID (optional)")
		fs.Parse(rest)
		r, err := a.client.CreateRedemption(ctx, api.CreateRedemptionRequest{
			SellerID: *seller,
			Points:   *points,
			OfferID:  *offer,
		})
		if err != nil {
			return err
		}
		fmt.Printf("redemption %s opened for %d pts at %s — watch it with: perkloop redeem watch %s\n",
			r.ID, r.Points, r.SellerName, r.ID)
		return nil
	case "list":
		fs := flag.NewFlagSet("redeem list", flag.ExitOnError)
		status := fs.String("status", "", "filter by status")
		fs.Parse(rest)
		rs, err := a.client.ListRedemptions(ctx, api.RedemptionStatus(*status))
		if err != nil {
			return err
		}
		if len(rs) == 0 {
			fmt.Println("no redemptions")
			return nil
		}
		for _, r := range rs {
			fmt.Printf("%-12s %-10s %5d pts  %s\n", r.ID, r.Status, r.Points, r.SellerName)
		}
		return nil
	case "cancel":
		if len(rest) != 1 {
			return fmt.Errorf("usage: perkloop redeem cancel <id>")
		}
		if err := a.client.CancelRedemption(ctx, rest[0]); err != nil {
			return err
		}
		fmt.Println("redemption cancelled")
		return nil
	case "watch":
		if len(rest) != 1 {
			return fmt.Errorf("usage: perkloop redeem watch <id>")
		}
		return a.cmdRedeemWatch(ctx, rest[0])
	default:
		return fmt.Errorf("unknown redeem subcommand: %s", sub)
	}
}

func (a *app) cmdRedeemWatch(ctx context.Context, id string) error {
	ctx, cancel := signalContext(ctx)
	defer cancel()
	a.watchConfig()

	refresher := poll.StartTokenRefresher(ctx, a.store, a.log)
	defer refresher.Stop()

	fmt.Printf("watching redemption %s (ctrl-c to stop)\n", id)
	watcher := poll.WatchRedemption(ctx, a.client, id, func(r *api.Redemption) {
		fmt.Printf("redemption %s is %s", r.ID, r.Status)
		if r.RedeemedAt != nil {
			fmt.Printf(" at %s", r.RedeemedAt.Format(time.Kitchen))
		}
		fmt.Println()
		cancel()
	}, a.log)
	defer watcher.Stop()

	<-ctx.Done()
	return nil
}

func (a *app) cmdSubscribe(ctx context.Context, args []string) error {
	if len(args) > 0 && args[0] == "verify" {
		fs := flag.NewFlagSet("subscribe verify", flag.ExitOnError)
		orderID := fs.String("order", "", "order ID")
		paymentID := fs.String("payment", "", "payment ID from the provider")
		signature := fs.String("signature", "", "provider signature")
		fs.Parse(args[1:])
		res, err := a.client.VerifyPayment(ctx, api.VerifyPaymentRequest{
			OrderID:   *orderID,
			PaymentID: *paymentID,
			Signature: *signature,
		})
		if err != nil {
			return err
		}
		fmt.Printf("payment verified — you are now on the %s plan\n", res.Plan)
		// Pull the updated tier into the session.
		if _, err := a.store.FetchUserDetails(ctx); err != nil {
			a.log.Warn().Err(err).Msg("profile refresh after upgrade failed")
		}
		return nil
	}

	fs := flag.NewFlagSet("subscribe", flag.ExitOnError)
	plan := fs.String("plan", "", "pro or premium")
	fs.Parse(args)
	order, err := a.client.CreateOrder(ctx, api.Tier(*plan))
	if err != nil {
		return err
	}
	fmt.Printf("order %s opened: %d %s for the %s plan\n",
		order.OrderID, order.Amount, order.Currency, order.Plan)
	fmt.Println("complete the payment, then run: perkloop subscribe verify")
	return nil
}

// printQR renders a code as text. The production app draws the PNG payload.
func printQR(qr *api.QRCode) {
	fmt.Printf("[%s] %s — %d pts\n", qr.Type, qr.ID, qr.PointsValue)
	fmt.Printf("  data: %s\n", qr.Data)
	if qr.ExpiresAt != nil {
		fmt.Printf("  expires: %s\n", qr.ExpiresAt.Format(time.RFC3339))
	}
}

// signalContext derives a context cancelled on SIGINT/SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-ch:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(ch)
	}()
	return ctx, cancel
}

// watchConfig applies base URL edits to the running client.
func (a *app) watchConfig() {
	err := config.Watch(func(cfg *config.Config) {
		if strings.TrimSpace(cfg.BaseURL) != "" {
			a.client.SetBaseURL(cfg.BaseURL)
			a.log.Info().Str("base_url", cfg.BaseURL).Msg("backend URL updated")
		}
	})
	if err != nil {
		a.log.Warn().Err(err).Msg("config watch unavailable")
	}
}
