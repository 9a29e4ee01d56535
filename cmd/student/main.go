package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	flag "github.com/spf13/pflag"

	"github.com/campuslive/classroom/internal/adapters/wsclient"
	"github.com/campuslive/classroom/internal/core"
	"github.com/campuslive/classroom/internal/domain"
	"github.com/campuslive/classroom/internal/protocol"
	"github.com/campuslive/classroom/internal/session"
)

func main() {
	serverURL := flag.String("server", "ws://localhost:8080/api/ws/class", "classroom relay websocket URL")
	room := flag.String("room", "main", "room to join")
	name := flag.String("name", "guest", "display name")
	teacher := flag.Bool("teacher", false, "join with the teacher role")
	flag.Parse()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.WarnLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	role := domain.RoleStudent
	if *teacher {
		role = domain.RoleTeacher
	}

	ch, err := wsclient.Dial(ctx, *serverURL)
	if err != nil {
		log.Fatal().Err(err).Msg("dial relay")
	}
	defer ch.Close()

	state, err := ch.Join(ctx, *room, *name, role)
	if err != nil {
		log.Fatal().Err(err).Msg("join room")
	}
	fmt.Printf("joined %s as %s (%s), %d in class\n", state.Room, state.You.Username, state.You.Role, state.Count)

	sess := session.NewSpeakSession(session.Config{
		ParticipantID:  string(state.You.ID),
		NoticeDuration: state.NoticeDuration(),
	}, nil)
	defer sess.Close()
	sess.Attach(ch)

	fmt.Println("commands: hand | mic | cam | who | allow <id> | deny <id> | quit")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "hand":
			if err := sess.RaiseHand(ctx); err != nil {
				fmt.Println("error:", err)
			}
		case "mic":
			if err := sess.ToggleMicrophone(ctx); err != nil {
				fmt.Println("error:", err)
			}
		case "cam":
			if err := sess.ToggleCamera(ctx); err != nil {
				fmt.Println("error:", err)
			}
		case "who":
			fmt.Printf("hand=%v speak=%v muted=%v camera_off=%v\n",
				sess.HandRaised(), sess.CanSpeak(), sess.MicrophoneMuted(), sess.CameraOff())
		case "allow", "deny":
			if len(fields) < 2 {
				fmt.Println("usage: allow|deny <student id>")
				continue
			}
			grant(ctx, ch, fields[1], fields[0] == "allow")
		case "quit":
			_ = ch.Leave(ctx)
			return
		default:
			fmt.Println("unknown command:", fields[0])
		}

		if n, ok := sess.Notice(); ok {
			fmt.Printf("[%s] %s\n", n.Kind, n.Text)
		}
	}
}

// grant publishes a speak permission; the relay drops it unless this
// client joined as a teacher.
func grant(ctx context.Context, ch *wsclient.Channel, studentID string, allowed bool) {
	raw, err := protocol.Encode(protocol.SpeakPermission{StudentID: studentID, Allowed: allowed})
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	if err := ch.Publish(ctx, raw, core.PublishOptions{Reliable: true}); err != nil {
		fmt.Println("error:", err)
	}
}
