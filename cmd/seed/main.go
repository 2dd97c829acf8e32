package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"journeybot/internal/model"
	"journeybot/internal/repository"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading environment directly")
	}

	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}
	dbName := os.Getenv("MONGO_DB")
	if dbName == "" {
		dbName = "journeybot"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(ctx)

	db := client.Database(dbName)
	catalogRepo := repository.NewCatalogRepo(db)
	childRepo := repository.NewChildRepo(db)

	yesNotYet := []model.AnswerOption{
		{Value: 1, Label: "Yes"},
		{Value: 2, Label: "Sometimes"},
		{Value: 3, Label: "Not yet"},
	}

	modules := []*model.Module{
		{
			AgeRangeLabel: "0-6 months",
			Title:         "First Half Year",
			Description:   "Early motor and social milestones from birth to six months.",
			MinMonths:     0,
			MaxMonths:     6,
			Order:         1,
			Questions: []model.Question{
				{
					ID:     "q_gm_head",
					Prompt: "When {child} is lying on {possessive} tummy, does {pronoun} lift {possessive} head?",
					Template: model.QuestionTemplate{
						CategoryName:   "Gross Motor",
						CategoryIcon:   "🤸",
						ImportanceText: "Head control is the first building block for sitting and crawling.",
						Options:        yesNotYet,
						FeedbackByValue: map[string]string{
							"1": "Wonderful! {child} is building strong neck muscles.",
							"2": "Great, {child} is getting there. Every tummy session helps.",
							"3": "That's okay, {caregiver}. Babies develop at their own pace.",
						},
						ActivityText: "Try a few minutes of supervised tummy time after each nap.",
					},
				},
				{
					ID:     "q_gm_roll",
					Prompt: "Does {child} roll from {possessive} tummy onto {possessive} back?",
					Template: model.QuestionTemplate{
						CategoryName:   "Gross Motor",
						CategoryIcon:   "🤸",
						ImportanceText: "Rolling shows growing strength and body awareness.",
						Options:        yesNotYet,
						FeedbackByValue: map[string]string{
							"1": "Fantastic, that's a big milestone!",
							"2": "Nice, {child} is practicing. Keep the floor time coming.",
							"3": "No worries. Place a toy just out of reach to encourage rolling.",
						},
						ActivityText: "Lay {child} on a blanket and slowly move a rattle from one side to the other.",
					},
				},
				{
					ID:     "q_sc_smile",
					Prompt: "Does {child} smile back when you smile at {pronoun}?",
					Template: model.QuestionTemplate{
						CategoryName:   "Social",
						CategoryIcon:   "😊",
						ImportanceText: "Social smiling is an early sign of connection and communication.",
						Options:        yesNotYet,
						FeedbackByValue: map[string]string{
							"1": "Those smiles are {child} talking to you!",
							"2": "Lovely. Keep making eye contact during calm moments.",
							"3": "Keep offering warm faces and voices, it will come.",
						},
						ActivityText: "Hold {child} about 30cm from your face and talk softly while smiling.",
					},
				},
			},
		},
		{
			AgeRangeLabel: "6-12 months",
			Title:         "Second Half Year",
			Description:   "Sitting, babbling and object play from six to twelve months.",
			MinMonths:     6,
			MaxMonths:     12,
			Order:         2,
			Questions: []model.Question{
				{
					ID:     "q_gm_sit",
					Prompt: "Can {child} sit without support for a little while?",
					Template: model.QuestionTemplate{
						CategoryName:   "Gross Motor",
						CategoryIcon:   "🤸",
						ImportanceText: "Independent sitting frees the hands for exploring and play.",
						Options:        yesNotYet,
						FeedbackByValue: map[string]string{
							"1": "Great job, {child} is ready to explore the world sitting up!",
							"2": "Almost there. Cushions around {pronoun} make practice safe.",
							"3": "That's fine, {caregiver}. Supported sitting on your lap is good practice.",
						},
						ActivityText: "Sit {child} on the floor between your legs and play with stacking cups.",
					},
				},
				{
					ID:     "q_lg_babble",
					Prompt: "Does {child} babble sounds like 'ba-ba' or 'da-da'?",
					Template: model.QuestionTemplate{
						CategoryName:   "Language",
						CategoryIcon:   "🗣️",
						ImportanceText: "Babbling is how babies rehearse the sounds of speech.",
						Options:        yesNotYet,
						FeedbackByValue: map[string]string{
							"1": "Music to a caregiver's ears! Answer back to keep the conversation going.",
							"2": "Good start. Narrating your day gives {pronoun} more sounds to copy.",
							"3": "Keep talking and singing to {child}, every word counts.",
						},
						ActivityText: "Repeat {child}'s sounds back and pause, giving {pronoun} a turn to reply.",
					},
				},
			},
		},
	}

	for _, m := range modules {
		id, err := catalogRepo.Create(ctx, m)
		if err != nil {
			log.Fatalf("Failed to seed module %q: %v", m.Title, err)
		}
		log.Printf("Seeded module %q (%s) with %d questions: %s", m.Title, m.AgeRangeLabel, len(m.Questions), id)
	}

	child := &model.Child{
		Name:       "Alice",
		BirthDate:  time.Now().AddDate(0, -8, 0),
		Pronoun:    "she",
		Possessive: "her",
	}
	childID, err := childRepo.Create(ctx, child)
	if err != nil {
		log.Fatalf("Failed to seed child: %v", err)
	}
	log.Printf("Seeded demo child %q: %s", child.Name, childID)

	log.Println("Seed complete")
}
