package thread

import "github.com/xaenox/nova-forum/internal/models"

// DemoThreads returns the welcome threads shown on a fresh forum.
// IDs are left empty so the store assigns its own.
func DemoThreads(bot models.BotIdentity) []models.Post {
	return []models.Post{
		{
			Author:       "StarGazer_99",
			AvatarRef:    "https://i.pravatar.cc/150?u=1",
			Content:      "Just saw Saturn through my new 8-inch Dobsonian. The rings were crystal clear tonight! Anyone else catch the alignment?",
			CreatedLabel: "2 hours ago",
			LikeCount:    24,
			Enrichment: &models.Enrichment{
				Summary: "An amateur astronomer captures a clear view of Saturn's rings.",
				Tags:    []string{"#Saturn", "#Astrophotography", "#Telescope"},
			},
			Replies: []models.Reply{
				{
					Author:       bot.Name,
					AvatarRef:    bot.AvatarRef,
					Content:      "Saturn is truly the jewel of our solar system. That 8-inch Dobsonian must provide spectacular views!",
					CreatedLabel: "1 hour ago",
					LikeCount:    5,
				},
			},
		},
		{
			Author:       "VoidSeeker",
			AvatarRef:    "https://i.pravatar.cc/150?u=2",
			Content:      "The James Webb images of the Pillars of Creation are absolutely mind-blowing. The detail in the dust clouds is unprecedented.",
			CreatedLabel: "5 hours ago",
			LikeCount:    56,
			Enrichment: &models.Enrichment{
				Summary: "Reflecting on the incredible detail of JWST's Pillars of Creation imagery.",
				Tags:    []string{"#JWST", "#Nebula", "#CosmicDust"},
			},
		},
	}
}
