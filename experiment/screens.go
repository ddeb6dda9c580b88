package experiment

import "fmt"

func startScreen() Screen {
	return Screen{
		ID:      ScreenStart,
		Body:    []string{"Press the button below to begin the task."},
		Button:  "Begin task",
		Control: ControlContinue,
	}
}

func instructionsScreen(practiceTrials, blocks int) Screen {
	return Screen{
		ID:    ScreenInstructions,
		Title: "Instructions",
		Body: []string{
			"In this task you will be shown the name of a musical note and hear a tone.",
			"Your job is to change the pitch of the tone until it matches the note.",
			fmt.Sprintf("There will be %d practice trials followed by %d blocks of trials.", practiceTrials, blocks),
			"Before starting, you will set the volume to a comfortable level.",
		},
		Button:  "Continue",
		Control: ControlContinue,
	}
}

func volumeScreen() Screen {
	return Screen{
		ID:    ScreenVolume,
		Title: "Volume",
		Body: []string{
			"Press Play to hear a sound and use the slider to set it to a comfortable level.",
			"You can pause and resume the sound at any time.",
			"Press Continue when you are happy with the volume.",
		},
		Button:  "Continue",
		Control: ControlVolumeContinue,
	}
}

func recordingScreen() Screen {
	return Screen{
		ID:    ScreenRecording,
		Title: "Recording",
		Body: []string{
			"If the coordinator of the study has asked you to record this session, please start the recording now.",
			"Press the button below when you are ready to continue.",
		},
		Button:  "Continue",
		Control: ControlContinue,
	}
}

func practiceScreen(practiceTrials int) Screen {
	return Screen{
		ID:    ScreenPractice,
		Title: "Practice",
		Body: []string{
			fmt.Sprintf("We will begin with %s practice trials.", count(practiceTrials)),
			"Each trial will begin with a note being displayed on the screen.",
			"A slider will then appear below the note and a tone will begin playing.",
			"You can alter the pitch of the tone by moving the location on the slider.",
			"When you believe that the pitch of the tone matches the note, press the Continue button.",
		},
		Button:  "Begin practice trials",
		Control: ControlContinue,
	}
}

func mainScreen(blocks, trialsPerBlock int) Screen {
	return Screen{
		ID:    ScreenMain,
		Title: "Main task",
		Body: []string{
			"We will now begin the trials for the main task.",
			fmt.Sprintf("There will be %d blocks, each containing %d trials, with a self-paced break in between blocks.", blocks, trialsPerBlock),
		},
		Button:  "Begin trials",
		Control: ControlContinue,
	}
}

func breakScreen(completed, blocks int) Screen {
	return Screen{
		ID:    ScreenBreak,
		Title: "Break",
		Body: []string{
			fmt.Sprintf("You have now completed block %d / %d.", completed, blocks),
			"Please take a short break and press the button below when ready to commence the next block.",
		},
		Button:  "Continue",
		Control: ControlContinue,
	}
}

func pitchScreen(note string) Screen {
	return Screen{
		ID:      ScreenPitch,
		Title:   note,
		Button:  "Continue",
		Control: ControlPitchContinue,
	}
}

func finishScreen() Screen {
	return Screen{
		ID:    ScreenFinish,
		Title: "Finished",
		Body: []string{
			"The task is now complete.",
			"When you press the button below, the results will be saved to a file on this computer.",
		},
		Button:  "Save results",
		Control: ControlContinue,
	}
}

func finalScreen(path string) Screen {
	body := []string{"The session is now complete."}
	if path != "" {
		body = append(body, "Results were saved to "+path+".")
	}
	body = append(body,
		"Please email the results file to the coordinator of the study.",
		"You may now close this window.",
	)
	return Screen{ID: ScreenFinal, Body: body}
}

func fatalScreen(err error) Screen {
	return Screen{
		ID:    ScreenFatal,
		Title: "Session stopped",
		Body:  []string{FatalMessage(err)},
	}
}

func count(n int) string {
	words := []string{"zero", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine", "ten", "eleven", "twelve"}
	if n >= 0 && n < len(words) {
		return words[n]
	}
	return fmt.Sprint(n)
}
