/*
Copyright 2011-2026 Frederic Langlet
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
you may obtain a copy of the License at

                http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"go.uber.org/zap"

	kodec "github.com/blockcodec/kodec"
)

// infoListener logs block-level events through the CLI's logger. It
// replaces the teacher's raw buffered-writer Printer with structured
// logging.
type infoListener struct {
	log *zap.SugaredLogger
}

func newInfoListener(log *zap.SugaredLogger) *infoListener {
	return &infoListener{log: log}
}

func (this *infoListener) ProcessEvent(evt *kodec.Event) {
	this.log.Debugw(eventName(evt.Type()), "block", evt.ID(), "size", evt.Size())
}

func eventName(evtType int) string {
	switch evtType {
	case kodec.EVT_BEFORE_TRANSFORM:
		return "before transform"
	case kodec.EVT_AFTER_TRANSFORM:
		return "after transform"
	case kodec.EVT_BEFORE_ENTROPY:
		return "before entropy"
	case kodec.EVT_AFTER_ENTROPY:
		return "after entropy"
	default:
		return "event"
	}
}
