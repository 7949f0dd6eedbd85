package cli

import (
	"fmt"
	"io"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/najah-ai/learner-service/internal/estimator"
)

type simulateOptions struct {
	answers    string
	difficulty float64
	ability    float64
	confidence float64
}

func newSimulateCommand() *cobra.Command {
	opts := simulateOptions{}

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Replay a sequence of answers through the ability estimator",
		Example: `  learnerctl simulate --answers 1,0,1,1
  learnerctl simulate --answers 1,1,0 --ability 0.3 --confidence 0.8`,
		RunE: func(cmd *cobra.Command, args []string) error {
			responses, err := parseAnswers(opts.answers, opts.difficulty)
			if err != nil {
				return err
			}
			initial := estimator.AbilityState{
				Ability:    estimator.Clamp(opts.ability, 0, 1),
				Confidence: estimator.Clamp(opts.confidence, 0, 1),
			}
			renderSimulation(cmd.OutOrStdout(), initial, responses)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.answers, "answers", "", "comma separated answers: 1/0, true/false or y/n")
	cmd.Flags().Float64Var(&opts.difficulty, "difficulty", 0.5, "difficulty of every item, between 0 and 1")
	cmd.Flags().Float64Var(&opts.ability, "ability", 0.5, "initial ability")
	cmd.Flags().Float64Var(&opts.confidence, "confidence", 0.5, "initial confidence")
	_ = cmd.MarkFlagRequired("answers")

	return cmd
}

func parseAnswers(raw string, difficulty float64) ([]estimator.ItemResponse, error) {
	var responses []estimator.ItemResponse
	for i, field := range strings.Split(raw, ",") {
		field = strings.ToLower(strings.TrimSpace(field))
		if field == "" {
			continue
		}

		var correct bool
		switch field {
		case "1", "true", "y", "yes":
			correct = true
		case "0", "false", "n", "no":
			correct = false
		default:
			return nil, fmt.Errorf("answer %d: %q is not 1/0, true/false or y/n", i+1, field)
		}
		responses = append(responses, estimator.ItemResponse{Difficulty: difficulty, Correct: correct})
	}

	if len(responses) == 0 {
		return nil, fmt.Errorf("no answers given")
	}
	return responses, nil
}

func renderSimulation(w io.Writer, initial estimator.AbilityState, responses []estimator.ItemResponse) {
	states := estimator.ApplyResponses(initial, responses)

	fmt.Fprintln(w, titleStyle.Render("Session simulation"))
	fmt.Fprintf(w, "%s %.4f / %.4f\n\n", labelStyle.Render("Start"), initial.Ability, initial.Confidence)

	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-4s %-8s %-10s %-10s %-10s", "#", "Answer", "Ability", "Confidence", "Next")))
	for i, state := range states {
		answer := wrongStyle.Render(fmt.Sprintf("%-8s", "wrong"))
		if responses[i].Correct {
			answer = correctStyle.Render(fmt.Sprintf("%-8s", "correct"))
		}
		fmt.Fprintf(w, "%-4d %s %-10.4f %-10.4f %-10.4f\n",
			i+1, answer, state.Ability, state.Confidence,
			estimator.OptimalDifficulty(state.Ability, state.Confidence))
	}

	final := states[len(states)-1]
	summary := lipgloss.JoinVertical(lipgloss.Left,
		labelStyle.Render("Final ability")+fmt.Sprintf("%.4f", final.Ability),
		labelStyle.Render("Final confidence")+fmt.Sprintf("%.4f", final.Confidence),
		labelStyle.Render("Level")+bar(estimator.LevelFromRate(final.Ability*100)),
	)
	fmt.Fprintln(w)
	fmt.Fprintln(w, cardStyle.Render(summary))
}
