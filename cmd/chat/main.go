package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/zhouzirui/safespeak/backend/internal/widget"
	"github.com/zhouzirui/safespeak/backend/internal/widget/tui"
)

var (
	serverURL string
	username  string
	password  string
	timeout   time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "chat",
	Short: "Terminal chat widget backed by the SafeSpeak analysis server",
	Long: `Log in to a SafeSpeak server and chat in an interactive terminal widget.
Every message is analysed for toxicity; the side panel shows the latest
verdict and a running tally.`,
	SilenceUsage: true,
	RunE:         runChat,
}

var sendCmd = &cobra.Command{
	Use:   "send MESSAGE...",
	Short: "Analyse messages once and print the verdicts",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSend,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", envOr("SAFESPEAK_SERVER", "http://localhost:5000"), "analysis server base URL")
	rootCmd.PersistentFlags().StringVarP(&username, "username", "u", os.Getenv("SAFESPEAK_USERNAME"), "account username")
	rootCmd.PersistentFlags().StringVarP(&password, "password", "p", os.Getenv("SAFESPEAK_PASSWORD"), "account password")
	rootCmd.PersistentFlags().DurationVar(&timeout, "login-timeout", 10*time.Second, "timeout for the login request")
	rootCmd.AddCommand(sendCmd)
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// connect 创建HTTP分析客户端，提供了账号时先登录
func connect(ctx context.Context) (*widget.HTTPAnalyzer, error) {
	analyzer, err := widget.NewHTTPAnalyzer(serverURL)
	if err != nil {
		return nil, err
	}
	if username == "" {
		return analyzer, nil
	}

	loginCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := analyzer.Login(loginCtx, username, password); err != nil {
		return nil, fmt.Errorf("login as %s: %w", username, err)
	}
	return analyzer, nil
}

func runChat(cmd *cobra.Command, _ []string) error {
	analyzer, err := connect(cmd.Context())
	if err != nil {
		return err
	}
	return tui.Run(cmd.Context(), analyzer)
}

func runSend(cmd *cobra.Command, args []string) error {
	analyzer, err := connect(cmd.Context())
	if err != nil {
		return err
	}

	view := newPrintView(cmd.OutOrStdout())
	controller := widget.New(analyzer, view, widget.WithContext(cmd.Context()))
	for _, text := range args {
		controller.Submit(text)
	}
	controller.Wait()

	tally := controller.Tally()
	fmt.Fprintf(cmd.OutOrStdout(), "total=%d toxic=%d\n", tally.Total, tally.Toxic)
	if view.failures() > 0 {
		return fmt.Errorf("%d message(s) could not be analysed", view.failures())
	}
	return nil
}
