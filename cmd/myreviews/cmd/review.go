package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"myreviews/internal/model"
)

var (
	reviewRestaurantID   int64
	reviewRestaurantName string
	reviewLat            float64
	reviewLon            float64
	reviewAddress        string
	reviewRating         float64
	reviewComment        string
	reviewVisitDate      string
	reviewListRestaurant int64
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Manage your restaurant reviews",
}

var reviewAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a review",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := store.Users.EnsureDefaultUser()
		if err != nil {
			return err
		}
		if reviewRestaurantID == 0 || reviewRestaurantName == "" {
			return fmt.Errorf("--restaurant-id and --restaurant-name are required (find them with 'myreviews search')")
		}
		if !model.IsValidRating(reviewRating) {
			return fmt.Errorf("rating must be between 1 and 5")
		}

		visitDate := model.DateOf(time.Now())
		if reviewVisitDate != "" {
			if visitDate, err = model.ParseDate(reviewVisitDate); err != nil {
				return fmt.Errorf("invalid visit date %q, want YYYY-MM-DD", reviewVisitDate)
			}
		}

		review := &model.Review{
			RestaurantID:      reviewRestaurantID,
			RestaurantName:    reviewRestaurantName,
			RestaurantLat:     reviewLat,
			RestaurantLon:     reviewLon,
			RestaurantAddress: reviewAddress,
			Rating:            reviewRating,
			Comment:           reviewComment,
			VisitDate:         visitDate,
			UserID:            user.UserID,
			UserName:          user.UserName,
		}
		if err := store.Reviews.Insert(review); err != nil {
			return err
		}

		fmt.Printf("Added review #%d for %s (%.1f stars)\n", review.ID, review.RestaurantName, review.Rating)
		triggerAutoSync(cmd)
		return nil
	},
}

var reviewListCmd = &cobra.Command{
	Use:   "list",
	Short: "List reviews, newest visit first",
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			reviews []model.Review
			err     error
		)
		if reviewListRestaurant != 0 {
			avg, count, statsErr := store.Reviews.RestaurantStats(reviewListRestaurant)
			if statsErr == nil && count > 0 {
				fmt.Printf("Restaurant %d: %.1f★ average over %d reviews\n\n", reviewListRestaurant, avg, count)
			}
			reviews, err = store.Reviews.ListByRestaurant(reviewListRestaurant)
		} else {
			reviews, err = store.Reviews.ListAll()
		}
		if err != nil {
			return err
		}
		if len(reviews) == 0 {
			fmt.Println("No reviews yet.")
			return nil
		}

		for _, r := range reviews {
			status := "synced"
			if r.SyncedAt == nil {
				status = "pending"
			}
			fmt.Printf("#%-6d %-30s %.1f★  %s  by %s  [%s]\n",
				r.ID, truncate(r.RestaurantName, 30), r.Rating, r.VisitDate, r.UserName, status)
			if r.Comment != "" {
				fmt.Printf("        %s\n", r.Comment)
			}
		}
		return nil
	},
}

var reviewEditCmd = &cobra.Command{
	Use:   "edit REVIEW_ID",
	Short: "Edit one of your reviews",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid review id %q", args[0])
		}
		review, err := store.Reviews.GetByID(id)
		if err != nil {
			return err
		}

		if cmd.Flags().Changed("rating") {
			if !model.IsValidRating(reviewRating) {
				return fmt.Errorf("rating must be between 1 and 5")
			}
			review.Rating = reviewRating
		}
		if cmd.Flags().Changed("comment") {
			review.Comment = reviewComment
		}
		if cmd.Flags().Changed("visit-date") {
			if review.VisitDate, err = model.ParseDate(reviewVisitDate); err != nil {
				return fmt.Errorf("invalid visit date %q, want YYYY-MM-DD", reviewVisitDate)
			}
		}

		if err := store.Reviews.Update(review); err != nil {
			return err
		}
		fmt.Printf("Updated review #%d\n", review.ID)
		triggerAutoSync(cmd)
		return nil
	},
}

var reviewDeleteCmd = &cobra.Command{
	Use:   "delete REVIEW_ID",
	Short: "Delete one of your reviews",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid review id %q", args[0])
		}
		if err := store.Reviews.MarkDeleted(id); err != nil {
			return err
		}
		fmt.Printf("Deleted review #%d. The delete reaches the server on the next sync.\n", id)
		triggerAutoSync(cmd)
		return nil
	},
}

// triggerAutoSync pushes the mutation in the background when auto-sync is on.
func triggerAutoSync(cmd *cobra.Command) {
	if !prefs.SyncEnabled() || !prefs.AutoSyncEnabled() || !prefs.HasValidServerConfig() {
		return
	}
	s, err := newSyncer()
	if err != nil {
		return
	}
	if _, err := s.PerformSync(cmd.Context()); err != nil {
		fmt.Printf("Note: auto-sync failed (%v); run 'myreviews sync' later.\n", err)
	}
}

// truncate cuts at rune boundaries so multibyte names stay valid UTF-8.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return strings.TrimSpace(string(runes[:max-1])) + "…"
}

func init() {
	reviewAddCmd.Flags().Int64Var(&reviewRestaurantID, "restaurant-id", 0, "OSM restaurant id")
	reviewAddCmd.Flags().StringVar(&reviewRestaurantName, "restaurant-name", "", "restaurant name")
	reviewAddCmd.Flags().Float64Var(&reviewLat, "lat", 0, "restaurant latitude")
	reviewAddCmd.Flags().Float64Var(&reviewLon, "lon", 0, "restaurant longitude")
	reviewAddCmd.Flags().StringVar(&reviewAddress, "address", "", "restaurant address")
	reviewAddCmd.Flags().Float64Var(&reviewRating, "rating", 0, "rating, 1 to 5")
	reviewAddCmd.Flags().StringVar(&reviewComment, "comment", "", "review text")
	reviewAddCmd.Flags().StringVar(&reviewVisitDate, "visit-date", "", "visit date YYYY-MM-DD (default today)")

	reviewEditCmd.Flags().Float64Var(&reviewRating, "rating", 0, "new rating, 1 to 5")
	reviewEditCmd.Flags().StringVar(&reviewComment, "comment", "", "new review text")
	reviewEditCmd.Flags().StringVar(&reviewVisitDate, "visit-date", "", "new visit date YYYY-MM-DD")

	reviewListCmd.Flags().Int64Var(&reviewListRestaurant, "restaurant-id", 0, "only reviews for this restaurant")

	reviewCmd.AddCommand(reviewAddCmd, reviewListCmd, reviewEditCmd, reviewDeleteCmd)
	rootCmd.AddCommand(reviewCmd)
}
