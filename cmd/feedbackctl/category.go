package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yukikurage/faculty-feedback-api/internal/repository"
	"github.com/yukikurage/faculty-feedback-api/internal/services"
)

func categoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category",
		Short: "Manage feedback categories",
	}
	cmd.AddCommand(categoryAddCmd())
	cmd.AddCommand(categoryListCmd())
	return cmd
}

func categoryAddCmd() *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "add [name]",
		Short: "Add an active category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, cleanup, err := openEnv()
			if err != nil {
				return err
			}
			defer cleanup()

			svc := services.NewCategoryService(repository.NewCategoryRepository(e.db))
			category, err := svc.Create(cmd.Context(), args[0], description)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created category %d (%s)\n", category.ID, category.Name)
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "category description")
	return cmd
}

func categoryListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List active categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, cleanup, err := openEnv()
			if err != nil {
				return err
			}
			defer cleanup()

			svc := services.NewCategoryService(repository.NewCategoryRepository(e.db))
			categories, err := svc.ListActive(cmd.Context())
			if err != nil {
				return err
			}
			for _, c := range categories {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\n", c.ID, c.Name, c.Description)
			}
			return nil
		},
	}
}
