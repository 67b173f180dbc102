package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quillfin/quill/internal/cli"
	"github.com/quillfin/quill/internal/model"
)

func entitiesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entities",
		Short: "Manage canonical merchant entities",
		Long:  `View and edit the phonebook of canonical merchants and their aliases.`,
	}

	cmd.AddCommand(entitiesListCmd())
	cmd.AddCommand(entitiesAddCmd())
	cmd.AddCommand(entitiesSearchCmd())
	cmd.AddCommand(entitiesAliasesCmd())

	return cmd
}

func entitiesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all entities",
		RunE: func(cmd *cobra.Command, _ []string) error {
			book, err := initPhonebook()
			if err != nil {
				return fmt.Errorf("failed to load phonebook: %w", err)
			}
			entities := book.AllEntities()
			if len(entities) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no entities yet")
				return nil
			}
			printEntities(cmd, entities)
			return nil
		},
	}
}

func entitiesAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <alias> <canonical-name>",
		Short: "Register an alias for an entity",
		Long: `Add registers an alias for a canonical merchant, creating the
merchant when it does not exist yet. Registering an alias that already
belongs to another entity fails.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			category, _ := cmd.Flags().GetString("category")

			book, err := initPhonebook()
			if err != nil {
				return fmt.Errorf("failed to load phonebook: %w", err)
			}
			entity, err := book.Register(args[0], args[1], category)
			if err != nil {
				return fmt.Errorf("failed to register alias: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf(
				"%q → %s (%s)", args[0], entity.CanonicalName, entity.DefaultCategory)))
			return nil
		},
	}
	cmd.Flags().String("category", "", "default category for a newly created entity")
	return cmd
}

func entitiesSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search entities by name or alias",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.ToLower(args[0])

			book, err := initPhonebook()
			if err != nil {
				return fmt.Errorf("failed to load phonebook: %w", err)
			}

			var matches []model.Entity
			for _, entity := range book.AllEntities() {
				if entityMatches(entity, query) {
					matches = append(matches, entity)
				}
			}
			if len(matches) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no entities matching %q\n", args[0])
				return nil
			}
			printEntities(cmd, matches)
			return nil
		},
	}
}

func entitiesAliasesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "aliases",
		Short: "List the flattened alias index",
		RunE: func(cmd *cobra.Command, _ []string) error {
			book, err := initPhonebook()
			if err != nil {
				return fmt.Errorf("failed to load phonebook: %w", err)
			}
			entries := book.Aliases()
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no aliases yet")
				return nil
			}
			for _, entry := range entries {
				fmt.Fprintf(cmd.OutOrStdout(), "%s → %s\n", entry.Alias, entry.EntityID)
			}
			return nil
		},
	}
}

func entityMatches(entity model.Entity, query string) bool {
	if strings.Contains(strings.ToLower(entity.CanonicalName), query) {
		return true
	}
	for _, alias := range entity.Aliases {
		if strings.Contains(alias, query) {
			return true
		}
	}
	return false
}

func printEntities(cmd *cobra.Command, entities []model.Entity) {
	out := cmd.OutOrStdout()
	for _, entity := range entities {
		fmt.Fprintf(out, "%s  [%s]\n", entity.CanonicalName, entity.DefaultCategory)
		for _, alias := range entity.Aliases {
			fmt.Fprintf(out, "    %s\n", alias)
		}
	}
}
