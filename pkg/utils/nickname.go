package utils

import "fmt"

var nicknameAdjectives = []string{
	"brave", "calm", "clever", "cosmic", "curious", "eager", "fuzzy",
	"gentle", "happy", "jolly", "lucky", "mellow", "nimble", "quiet",
	"rapid", "shiny", "sleepy", "sunny", "swift", "witty",
}

var nicknameNouns = []string{
	"badger", "comet", "dolphin", "falcon", "fox", "koala", "lynx",
	"meerkat", "otter", "panda", "penguin", "pioneer", "raccoon",
	"sparrow", "tiger", "walrus", "wombat",
}

// GenerateNickname builds a random default nickname for new signups,
// e.g. "swift_otter_4821". Uniqueness is the caller's concern.
func GenerateNickname() string {
	adjective := nicknameAdjectives[RandomIndex(len(nicknameAdjectives))]
	noun := nicknameNouns[RandomIndex(len(nicknameNouns))]
	return fmt.Sprintf("%s_%s_%04d", adjective, noun, RandomIndex(10000))
}
