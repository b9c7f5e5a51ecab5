package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hokkyo/dsmigrate/internal/entities"
	"github.com/hokkyo/dsmigrate/internal/infrastructure/config"
	"github.com/hokkyo/dsmigrate/internal/infrastructure/docstore"
	"github.com/hokkyo/dsmigrate/internal/repositories"
	docstorerepo "github.com/hokkyo/dsmigrate/internal/repositories/docstore"
	"github.com/hokkyo/dsmigrate/internal/services/differ"
	"github.com/hokkyo/dsmigrate/internal/services/inspector"
	"github.com/hokkyo/dsmigrate/internal/services/locker"
	"github.com/hokkyo/dsmigrate/internal/services/migrator"
	"github.com/hokkyo/dsmigrate/internal/services/parser"
	"github.com/hokkyo/dsmigrate/pkg/reporter"
)

var (
	envFlag    string
	schemaFlag string
	dryRun     bool
	force      bool
	yes        bool

	cfg *config.Config
	rep reporter.Reporter

	schemaRepo  repositories.SchemaRepository
	historyRepo repositories.HistoryRepository
	lockManager *locker.Manager
	executor    *migrator.Executor
	inspect     *inspector.Inspector
)

var rootCmd = &cobra.Command{
	Use:   "dsmigrate",
	Short: "Declarative schema migrations for document databases",
	Long: `dsmigrate parses a declarative schema definition, diffs it against the
live remote database, and applies the difference as an ordered, idempotent
sequence of API operations with history tracking, locking and rollback.`,
	PersistentPreRun: setup,
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the pending change set without mutating anything",
	RunE:  runPlan,
}

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply pending collections, attributes and indexes (phase 1)",
	RunE:  runApply,
}

var relationshipsCmd = &cobra.Command{
	Use:   "relationships",
	Short: "Apply pending relationship attributes (phase 2)",
	RunE:  runRelationships,
}

var rollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Reverse the most recent applied migration",
	RunE:  runRollback,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear the migration history",
	RunE:  runReset,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show migration history and current locks",
	RunE:  runStatus,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&envFlag, "env", "e", "dev", "Environment to use (dev, test, prod)")
	rootCmd.PersistentFlags().StringVarP(&schemaFlag, "schema", "s", "", "Path to the schema file (overrides SCHEMA_PATH)")

	applyCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Compute and print the change set without executing")
	relationshipsCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Compute and print pending relationships without executing")

	for _, cmd := range []*cobra.Command{applyCmd, relationshipsCmd, rollbackCmd, resetCmd} {
		cmd.Flags().BoolVar(&force, "force", false, "Continue past non-fatal errors and bypass lock contention")
	}
	resetCmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(relationshipsCmd)
	rootCmd.AddCommand(rollbackCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(statusCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, args []string) {
	rep = reporter.NewConsole()

	if err := config.InitConfig(envFlag); err != nil {
		log.Fatalf("Failed to initialize config: %v", err)
	}

	var err error
	cfg, err = config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if schemaFlag != "" {
		cfg.Migration.SchemaPath = schemaFlag
	}

	client := docstore.NewClient(
		cfg.Remote.Endpoint,
		cfg.Remote.ProjectID,
		cfg.Remote.APIKey,
		cfg.Remote.DatabaseID,
		cfg.Remote.Timeout,
	)

	schemaRepo = docstorerepo.NewDocstoreSchemaRepository(client)
	historyRepo = docstorerepo.NewDocstoreHistoryRepository(client)
	lockRepo := docstorerepo.NewDocstoreLockRepository(client)

	lockManager = locker.NewManager(lockRepo, locker.DefaultOwner(), cfg.Migration.LockTTL)
	inspect = inspector.New(schemaRepo)
	executor = migrator.NewExecutor(schemaRepo, historyRepo, lockManager, rep, cfg.Remote.DatabaseID)
}

// loadSchema parses the schema file and validates it eagerly so typos
// surface before any remote call.
func loadSchema() (*entities.Schema, error) {
	source, err := os.ReadFile(cfg.Migration.SchemaPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	schema := parser.Parse(string(source))
	if err := differ.ValidateSchema(schema); err != nil {
		return nil, err
	}
	return schema, nil
}

func calculateChangeSet(cmd *cobra.Command) (*entities.ChangeSet, error) {
	schema, err := loadSchema()
	if err != nil {
		return nil, err
	}
	remote, err := inspect.Describe(cmd.Context())
	if err != nil {
		return nil, err
	}
	return differ.CalculateChanges(schema, remote), nil
}

func printChangeSet(cs *entities.ChangeSet) {
	if cs.Empty() {
		rep.Success("schema is up to date, no changes")
		return
	}
	for _, c := range cs.Collections {
		rep.Info("+ collection %s (%s)", c.CollectionID, c.Name)
	}
	for _, a := range cs.Attributes {
		rep.Info("+ attribute  %s.%s (%s)", a.CollectionID, a.Attribute.Key, a.Attribute.Type)
	}
	for _, i := range cs.Indexes {
		rep.Info("+ index      %s.%s (%s on %s)", i.CollectionID, i.Key, i.Index.Type, strings.Join(i.Index.Fields, ", "))
	}
	rep.Info("pending: %s", cs.Summary())
}

func runPlan(cmd *cobra.Command, args []string) error {
	schema, err := loadSchema()
	if err != nil {
		return err
	}
	remote, err := inspect.Describe(cmd.Context())
	if err != nil {
		return err
	}
	printChangeSet(differ.CalculateChanges(schema, remote))
	for _, rel := range differ.CalculateRelationships(schema, remote) {
		rep.Info("+ relationship %s.%s -> %s (phase 2)", rel.CollectionID, rel.Key, rel.Relationship.ToCollection)
	}
	return nil
}

func runApply(cmd *cobra.Command, args []string) error {
	cs, err := calculateChangeSet(cmd)
	if err != nil {
		return err
	}
	printChangeSet(cs)
	if dryRun {
		return nil
	}
	return executor.Apply(cmd.Context(), cs, force)
}

func runRelationships(cmd *cobra.Command, args []string) error {
	schema, err := loadSchema()
	if err != nil {
		return err
	}
	remote, err := inspect.Describe(cmd.Context())
	if err != nil {
		return err
	}
	pending := differ.CalculateRelationships(schema, remote)
	for _, rel := range pending {
		rep.Info("+ relationship %s.%s -> %s", rel.CollectionID, rel.Key, rel.Relationship.ToCollection)
	}
	if dryRun {
		return nil
	}
	return executor.ApplyRelationships(cmd.Context(), pending, force)
}

func runRollback(cmd *cobra.Command, args []string) error {
	return executor.Rollback(cmd.Context(), force)
}

func runReset(cmd *cobra.Command, args []string) error {
	if !yes && !confirm("This clears the migration history. Continue?") {
		rep.Info("reset aborted")
		return nil
	}
	return executor.Reset(cmd.Context(), force)
}

func runStatus(cmd *cobra.Command, args []string) error {
	report, err := executor.Status(cmd.Context())
	if err != nil {
		return err
	}

	if len(report.Records) == 0 {
		rep.Info("no migration history")
	}
	for _, record := range report.Records {
		rep.Info("%s  %-13s %-11s checksum=%.12s", record.CreatedAt.Format(time.RFC3339), record.Type, record.Status, record.Checksum)
	}

	now := time.Now()
	for _, lock := range report.Locks {
		state := "held"
		if lock.Expired(now) {
			state = "stale"
		}
		rep.Warn("lock %s %s by %s (age %s, expires %s)",
			lock.LockID, state, lock.Owner, lock.Age(now).Round(time.Second), lock.ExpiresAt.Format(time.RFC3339))
	}
	return nil
}

// confirm asks a yes/no question on stdin
func confirm(question string) bool {
	fmt.Printf("%s [y/N]: ", question)
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "y" || answer == "yes"
}
