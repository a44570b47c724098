package main

import (
	"log"
	"os"

	"subtrackr-be/internal/model"
	"subtrackr-be/pkg/database"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"gorm.io/datatypes"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	color.Cyan("Seeding Provider Registry...")

	// Capability flags control method selection: api wins over
	// web_automation, everything else falls back to manual.
	providers := []model.Provider{
		{
			Slug: "netflix", Name: "Netflix",
			SupportsAPI: true, APIConfigured: true,
			SupportsWebAutomation: true, AutomationRegistered: true,
			ManualSteps:  datatypes.JSON([]byte(`["Sign in at netflix.com", "Open Account settings", "Select Cancel Membership"]`)),
			ContactEmail: "support@netflix.com",
			WebsiteURL:   "https://www.netflix.com/cancelplan",
		},
		{
			Slug: "spotify", Name: "Spotify",
			SupportsAPI: true, APIConfigured: true,
			ManualSteps: datatypes.JSON([]byte(`["Log in at spotify.com/account", "Open Your plan", "Select Change plan", "Choose Cancel Premium"]`)),
			WebsiteURL:  "https://www.spotify.com/account",
		},
		{
			Slug: "audible", Name: "Audible",
			SupportsWebAutomation: true, AutomationRegistered: true,
			ManualSteps:  datatypes.JSON([]byte(`["Sign in at audible.com", "Open Account Details", "Select Cancel membership"]`)),
			ContactPhone: "+1-888-283-5051",
			WebsiteURL:   "https://www.audible.com/account",
		},
		{
			Slug: "planet-fitness", Name: "Planet Fitness",
			ManualSteps:  datatypes.JSON([]byte(`["Visit your home club in person", "Ask the front desk for a cancellation form", "Submit the form or send a certified letter"]`)),
			ContactPhone: "+1-844-880-7180",
			WebsiteURL:   "https://www.planetfitness.com",
		},
		{
			Slug: "nytimes", Name: "The New York Times",
			SupportsWebAutomation: true,
			ManualSteps:           datatypes.JSON([]byte(`["Call customer care or use live chat at nytimes.com/help", "Request cancellation of your subscription"]`)),
			ContactPhone:          "+1-800-698-4637",
			WebsiteURL:            "https://www.nytimes.com/help",
		},
	}

	for _, p := range providers {
		var existing model.Provider
		if err := db.Where("slug = ?", p.Slug).First(&existing).Error; err == nil {
			color.Yellow("Provider '%s' already exists, skipping...", p.Slug)
			continue
		}

		if err := db.Create(&p).Error; err != nil {
			color.Red("Error creating provider '%s': %v", p.Slug, err)
		} else {
			color.Green("Created provider: %s (%s)", p.Name, p.Slug)
		}
	}

	color.Cyan("Seeding Notification Types...")
	SeedNotificationTypes(db)

	color.Green("Seeding completed!")
}
