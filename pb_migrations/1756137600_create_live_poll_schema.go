package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		users, err := app.FindCollectionByNameOrId("users")
		if err != nil {
			return err
		}

		// polls collection
		polls := core.NewBaseCollection("polls")
		polls.ListRule = nil
		polls.ViewRule = nil
		polls.CreateRule = nil
		polls.UpdateRule = nil
		polls.DeleteRule = nil

		polls.Fields.Add(&core.TextField{
			Name:     "title",
			Required: true,
			Max:      100,
		})

		polls.Fields.Add(&core.SelectField{
			Name:      "status",
			Required:  true,
			MaxSelect: 1,
			Values:    []string{"draft", "open", "closed"},
		})

		// owner: sole holder of privileged control commands
		polls.Fields.Add(&core.RelationField{
			Name:          "owner",
			Required:      true,
			MaxSelect:     1,
			CollectionId:  users.Id,
			CascadeDelete: true,
		})

		// active_question_id: nullable reference, validated by the
		// coordinator to belong to this poll
		polls.Fields.Add(&core.TextField{
			Name:     "active_question_id",
			Required: false,
			Max:      36,
		})

		polls.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		polls.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})

		polls.Indexes = []string{
			"CREATE INDEX idx_polls_owner ON polls(owner)",
			"CREATE INDEX idx_polls_status ON polls(status)",
		}

		if err := app.Save(polls); err != nil {
			return err
		}

		// questions collection
		questions := core.NewBaseCollection("questions")
		questions.ListRule = nil
		questions.ViewRule = nil
		questions.CreateRule = nil
		questions.UpdateRule = nil
		questions.DeleteRule = nil

		questions.Fields.Add(&core.RelationField{
			Name:          "poll_id",
			Required:      true,
			MaxSelect:     1,
			CollectionId:  polls.Id,
			CascadeDelete: true,
		})

		questions.Fields.Add(&core.TextField{
			Name:     "text",
			Required: true,
			Max:      300,
		})

		questions.Fields.Add(&core.NumberField{
			Name:     "position",
			Required: false,
		})

		questions.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		questions.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})

		questions.Indexes = []string{
			"CREATE INDEX idx_questions_poll ON questions(poll_id)",
		}

		if err := app.Save(questions); err != nil {
			return err
		}

		// options collection
		options := core.NewBaseCollection("options")
		options.ListRule = nil
		options.ViewRule = nil
		options.CreateRule = nil
		options.UpdateRule = nil
		options.DeleteRule = nil

		options.Fields.Add(&core.RelationField{
			Name:          "question_id",
			Required:      true,
			MaxSelect:     1,
			CollectionId:  questions.Id,
			CascadeDelete: true,
		})

		options.Fields.Add(&core.TextField{
			Name:     "text",
			Required: true,
			Max:      100,
		})

		options.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		options.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})

		options.Indexes = []string{
			"CREATE INDEX idx_options_question ON options(question_id)",
		}

		if err := app.Save(options); err != nil {
			return err
		}

		// votes collection
		votes := core.NewBaseCollection("votes")
		votes.ListRule = nil
		votes.ViewRule = nil
		votes.CreateRule = nil
		votes.UpdateRule = nil
		votes.DeleteRule = nil

		// voter_id is an opaque per-device string, not an account
		votes.Fields.Add(&core.TextField{
			Name:     "voter_id",
			Required: true,
			Max:      64,
		})

		votes.Fields.Add(&core.RelationField{
			Name:          "question_id",
			Required:      true,
			MaxSelect:     1,
			CollectionId:  questions.Id,
			CascadeDelete: true,
		})

		votes.Fields.Add(&core.RelationField{
			Name:          "option_id",
			Required:      true,
			MaxSelect:     1,
			CollectionId:  options.Id,
			CascadeDelete: true,
		})

		votes.Fields.Add(&core.DateField{
			Name:     "voted_at",
			Required: false,
		})

		votes.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		votes.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})

		// The unique pair is the final arbiter of one-vote-per-voter-
		// per-question; concurrent duplicate upserts merge here.
		votes.Indexes = []string{
			"CREATE UNIQUE INDEX idx_votes_voter_question ON votes(voter_id, question_id)",
			"CREATE INDEX idx_votes_question_option ON votes(question_id, option_id)",
		}

		return app.Save(votes)
	}, func(app core.App) error {
		for _, name := range []string{"votes", "options", "questions", "polls"} {
			collection, err := app.FindCollectionByNameOrId(name)
			if err != nil {
				continue
			}
			if err := app.Delete(collection); err != nil {
				return err
			}
		}
		return nil
	})
}
