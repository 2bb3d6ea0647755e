// Package fixtures provides upstream listing HTML used by parser and
// handler tests.
package fixtures

// ListingHome is a home page with a well-formed top 10 row of three
// entries, one entry without an image attribute, and a second row that
// reuses the item class outside the top 10 container.
func ListingHome() string {
	return `
<!DOCTYPE html>
<html>
<head><title>Home</title></head>
<body>
<div class="row" id="top10">
  <div class="row-title">Top 10 Today</div>
  <div class="top10-wrap">
    <div class="top10-post" data-post="81767635" data-rank="1">
      <span class="rank">1</span>
      <img class="lazy" data-src="https://imgcdn.example/poster/v/81767635.jpg" src="/img/blank.gif" alt="">
    </div>
    <div class="top10-post" data-post="70270776" data-rank="2">
      <span class="rank">2</span>
      <img class="lazy" data-src="https://imgcdn.example/poster/v/70270776.jpg" alt="">
    </div>
    <div class="top10-post" data-post="81919336" data-rank="3">
      <span class="rank">3</span>
      <img class="lazy" src="/img/blank.gif" alt="">
    </div>
    <div class="top10-post" data-post="80057281" data-rank="4">
      <span class="rank">4</span>
      <img class="lazy" data-src='https://imgcdn.example/poster/v/80057281.jpg' alt="">
    </div>
  </div>
</div>
<div class="row" id="trending">
  <div class="top10-post" data-post="11111111">
    <img data-src="https://imgcdn.example/poster/v/11111111.jpg">
  </div>
</div>
</body>
</html>
`
}

// ListingWithoutContainer has matching items but no top 10 container,
// forcing a whole-document scan.
func ListingWithoutContainer() string {
	return `
<html><body>
<section class="tray">
  <div class="post top10-post" data-post="101"><img data-src="https://imgcdn.example/101.jpg"></div>
  <div class="top10-post" data-post="102"><img data-src="https://imgcdn.example/102.jpg"></div>
</section>
</body></html>
`
}

// ListingMalformed mixes items that must be skipped: a non-numeric id,
// an id-less item, an empty image attribute, and unclosed tags.
func ListingMalformed() string {
	return `
<html><body>
<div id="top10">
  <div class="top10-post" data-post="abc"><img data-src="https://imgcdn.example/abc.jpg"></div>
  <div class="top10-post"><img data-src="https://imgcdn.example/none.jpg"></div>
  <div class="top10-post" data-post="303"><img data-src=""></div>
  <div class="top10-post" data-post="404"><img data-src="https://imgcdn.example/404.jpg">
  <div class="top10-post" data-post="505"><p><img data-src="//imgcdn.example/505.jpg">
</div>
</body></html>
`
}

// ListingRelativePosters uses site-relative and protocol-relative poster
// paths.
func ListingRelativePosters() string {
	return `
<html><body>
<div id="top10">
  <div class="top10-post" data-post="1"><img data-src="/poster/1.jpg"></div>
  <div class="top10-post" data-post="2"><img data-src="//cdn.example/2.jpg"></div>
</div>
</body></html>
`
}

// ListingEmpty is a page with no top 10 markup at all, like a login wall.
func ListingEmpty() string {
	return `<html><body><form action="/login"><input name="user"></form></body></html>`
}
